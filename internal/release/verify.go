package release

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"voicegate/internal/digest"
)

const ValidatorVersion = "R3.0"

// optionalArtifacts may sit in the release dir without a manifest entry.
var optionalArtifacts = map[string]bool{
	"ENGINE_BASELINE_REPLAY.txt":    true,
	"CONTRACT_FINGERPRINT_LOCK.txt": true,
}

// Report is the deterministic verification outcome.
type Report struct {
	ValidatorVersion string   `json:"manifest_validator_version"`
	Status           string   `json:"status"`
	Errors           []string `json:"errors"`
	ArtifactCount    int      `json:"artifact_count"`
	BundleDigest     string   `json:"bundle_digest"`
}

// OK reports whether the bundle passed.
func (r Report) OK() bool {
	return r.Status == "PASS"
}

// Verify checks the bundle in dir for internal consistency: every artifact's
// digest matches the manifest, the manifest's self-digest holds, and the
// contract snapshot's fingerprint matches its embedded canonical contract.
func Verify(dir string) (Report, error) {
	var errs []string

	manifestPath := filepath.Join(dir, ManifestFile)
	manifestRaw, err := os.ReadFile(manifestPath)
	if err != nil {
		return Report{
			ValidatorVersion: ValidatorVersion,
			Status:           "FAIL",
			Errors:           []string{"missing_artifact:" + ManifestFile},
			BundleDigest:     digest.Sha256Prefix + "0",
		}, nil
	}

	var manifest map[string]any
	if err := json.Unmarshal(manifestRaw, &manifest); err != nil {
		return Report{}, fmt.Errorf("parse manifest: %w", err)
	}

	errs = append(errs, checkManifestCanonical(manifestRaw, manifest)...)
	errs = append(errs, checkManifestDigest(manifest)...)

	artifactErrs, artifactCount := checkArtifactDigests(dir, manifest)
	errs = append(errs, artifactErrs...)

	errs = append(errs, checkContractSnapshot(dir, manifest)...)
	errs = append(errs, checkSelectorSnapshot(dir, manifest)...)
	errs = append(errs, checkEngineFingerprints(dir, manifest)...)

	status := "PASS"
	if len(errs) > 0 {
		status = "FAIL"
	}
	if errs == nil {
		errs = []string{}
	}
	return Report{
		ValidatorVersion: ValidatorVersion,
		Status:           status,
		Errors:           errs,
		ArtifactCount:    artifactCount,
		BundleDigest:     bundleDigest(manifest),
	}, nil
}

func checkManifestCanonical(raw []byte, manifest map[string]any) []string {
	canonical, err := digest.CanonicalJSON(manifest)
	if err != nil || string(raw) != canonical {
		return []string{"manifest_not_canonical"}
	}
	return nil
}

// checkManifestDigest recomputes the manifest digest over the manifest minus
// its own digest entry.
func checkManifestDigest(manifest map[string]any) []string {
	artifactDigests, _ := manifest["artifact_digests"].(map[string]any)
	recorded, _ := artifactDigests[ManifestFile].(string)
	if recorded == "" {
		return []string{"manifest_digest_missing"}
	}

	expected, err := manifestDigestWithoutSelf(manifest)
	if err != nil || expected != recorded {
		return []string{"manifest_digest_mismatch"}
	}
	return nil
}

func manifestDigestWithoutSelf(manifest map[string]any) (string, error) {
	copied := make(map[string]any, len(manifest))
	for k, v := range manifest {
		copied[k] = v
	}
	artifactDigests, _ := manifest["artifact_digests"].(map[string]any)
	trimmed := make(map[string]any, len(artifactDigests))
	for k, v := range artifactDigests {
		if k == ManifestFile {
			continue
		}
		trimmed[k] = v
	}
	copied["artifact_digests"] = trimmed

	canonical, err := digest.CanonicalJSON(copied)
	if err != nil {
		return "", err
	}
	return digest.SHA256Hex(canonical), nil
}

func checkArtifactDigests(dir string, manifest map[string]any) ([]string, int) {
	var errs []string
	artifactDigests, _ := manifest["artifact_digests"].(map[string]any)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{"release_dir_unreadable"}, len(artifactDigests)
	}
	actual := make(map[string]bool)
	for _, entry := range entries {
		if !entry.IsDir() {
			actual[entry.Name()] = true
		}
	}

	names := make([]string, 0, len(artifactDigests))
	for name := range artifactDigests {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !actual[name] {
			errs = append(errs, "missing_artifact:"+name)
		}
	}
	extras := make([]string, 0)
	for name := range actual {
		if _, listed := artifactDigests[name]; !listed && !optionalArtifacts[name] {
			extras = append(extras, "extra_artifact:"+name)
		}
	}
	sort.Strings(extras)
	errs = append(errs, extras...)

	for _, name := range names {
		if name == ManifestFile || !actual[name] {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, "artifact_unreadable:"+name)
			continue
		}
		recorded, _ := artifactDigests[name].(string)
		if digest.SHA256Hex(string(content)) != recorded {
			errs = append(errs, "artifact_digest_mismatch:"+name)
		}
	}
	return errs, len(artifactDigests)
}

func checkContractSnapshot(dir string, manifest map[string]any) []string {
	snapshot, err := readArtifact(dir, ContractSnapshotFile)
	if err != nil {
		return nil
	}
	var errs []string

	fingerprint, _ := snapshot["contract_fingerprint"].(string)
	canonicalRaw, hasRaw := snapshot["contract_raw_canonical"].(string)
	if fingerprint == "" || !hasRaw {
		return []string{"contract_snapshot_missing_fields"}
	}

	var rawContract any
	if err := json.Unmarshal([]byte(canonicalRaw), &rawContract); err != nil {
		return []string{"contract_raw_invalid_json"}
	}
	recanonical, err := digest.CanonicalJSON(rawContract)
	if err != nil || recanonical != canonicalRaw {
		errs = append(errs, "contract_raw_not_canonical")
	}
	if digest.SHA256Hex(canonicalRaw) != fingerprint {
		errs = append(errs, "contract_fingerprint_mismatch")
	}
	if manifestFingerprint, _ := manifest["contract_fingerprint"].(string); manifestFingerprint != "" && manifestFingerprint != fingerprint {
		errs = append(errs, "manifest_contract_fingerprint_mismatch")
	}
	return errs
}

func checkSelectorSnapshot(dir string, manifest map[string]any) []string {
	snapshot, err := readArtifact(dir, SelectorSnapshotFile)
	if err != nil {
		return nil
	}
	canonical, err := digest.CanonicalJSON(snapshot)
	if err != nil {
		return []string{"selector_snapshot_not_canonical"}
	}
	if recorded, _ := manifest["selector_snapshot_digest"].(string); recorded != "" && digest.SHA256Hex(canonical) != recorded {
		return []string{"selector_snapshot_digest_mismatch"}
	}
	return nil
}

// checkEngineFingerprints requires the same engine fingerprint across all
// three artifacts.
func checkEngineFingerprints(dir string, manifest map[string]any) []string {
	var errs []string

	manifestFP, _ := manifest["engine_fingerprint"].(string)
	if manifestFP == "" {
		errs = append(errs, "engine_fingerprint_missing_in_manifest")
	}

	contractFP := artifactFingerprint(dir, ContractSnapshotFile)
	if contractFP == "" {
		errs = append(errs, "engine_fingerprint_missing_in_contract_snapshot")
	}
	selectorFP := artifactFingerprint(dir, SelectorSnapshotFile)
	if selectorFP == "" {
		errs = append(errs, "engine_fingerprint_missing_in_selector_snapshot")
	}

	if manifestFP != "" && contractFP != "" && selectorFP != "" {
		if manifestFP != contractFP || manifestFP != selectorFP {
			errs = append(errs, "engine_fingerprint_mismatch_across_artifacts")
		}
	}
	return errs
}

func artifactFingerprint(dir, name string) string {
	snapshot, err := readArtifact(dir, name)
	if err != nil {
		return ""
	}
	fp, _ := snapshot["engine_fingerprint"].(string)
	return fp
}

func readArtifact(dir, name string) (map[string]any, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// bundleDigest folds the artifact digests and engine fingerprint into one
// release-level digest.
func bundleDigest(manifest map[string]any) string {
	payload := map[string]any{
		"artifact_digests":   manifest["artifact_digests"],
		"engine_fingerprint": manifest["engine_fingerprint"],
	}
	canonical, err := digest.CanonicalJSON(payload)
	if err != nil {
		return digest.Sha256Prefix + "0"
	}
	return digest.Sha256Prefix + digest.SHA256Hex(canonical)
}
