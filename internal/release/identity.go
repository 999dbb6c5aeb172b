package release

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"voicegate/internal/config"
	"voicegate/internal/contract"
	"voicegate/internal/digest"
)

// Identity is the runtime identity check result, comparing the live contract
// and engine identity against the committed bundle.
type Identity struct {
	Status                      string   `json:"status"`
	Errors                      []string `json:"errors"`
	ManifestEngineFingerprint   string   `json:"manifest_engine_fingerprint"`
	LiveEngineFingerprint       string   `json:"live_engine_fingerprint"`
	ManifestContractFingerprint string   `json:"manifest_contract_fingerprint"`
	LiveContractFingerprint     string   `json:"live_contract_fingerprint"`
	BundleDigest                string   `json:"bundle_digest"`
}

// VerifyIdentity cross-checks the bundle in dir against what is actually
// running: the loaded contract's fingerprint and the configured engine
// identity. Strict callers refuse to serve on FAIL.
func VerifyIdentity(dir string, doc *contract.Document, identity config.EngineConfig) (Identity, error) {
	report, err := Verify(dir)
	if err != nil {
		return Identity{}, err
	}
	errs := append([]string{}, report.Errors...)

	manifest, readErr := readArtifact(dir, ManifestFile)
	if readErr != nil {
		return Identity{
			Status: "FAIL",
			Errors: append(errs, "missing_artifact:"+ManifestFile),
		}, nil
	}

	liveEngineFP, err := EngineFingerprint(identity)
	if err != nil {
		return Identity{}, err
	}

	liveContractCanonical, err := digest.CanonicalJSON(doc.Raw())
	if err != nil {
		return Identity{}, fmt.Errorf("canonicalize live contract: %w", err)
	}
	liveContractFP := digest.SHA256Hex(liveContractCanonical)

	manifestEngineFP, _ := manifest["engine_fingerprint"].(string)
	manifestContractFP, _ := manifest["contract_fingerprint"].(string)

	if manifestEngineFP != liveEngineFP {
		errs = append(errs, "engine_fingerprint_runtime_mismatch")
	}
	if manifestContractFP != liveContractFP {
		errs = append(errs, "contract_fingerprint_runtime_mismatch")
	}

	status := "PASS"
	if len(errs) > 0 {
		status = "FAIL"
	}
	return Identity{
		Status:                      status,
		Errors:                      errs,
		ManifestEngineFingerprint:   manifestEngineFP,
		LiveEngineFingerprint:       liveEngineFP,
		ManifestContractFingerprint: manifestContractFP,
		LiveContractFingerprint:     liveContractFP,
		BundleDigest:                report.BundleDigest,
	}, nil
}

// VerifyIdentityStrict runs the identity check and converts FAIL into an
// error suitable for blocking startup.
func VerifyIdentityStrict(dir string, doc *contract.Document, identity config.EngineConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	result, err := VerifyIdentity(dir, doc, identity)
	if err != nil {
		return err
	}
	if result.Status != "PASS" {
		return fmt.Errorf("runtime identity verification failed: %s", strings.Join(result.Errors, ", "))
	}
	logger.Info("runtime identity verified",
		zap.String("bundle_digest", result.BundleDigest),
		zap.String("contract_fingerprint", result.LiveContractFingerprint))
	return nil
}
