// Package release builds and verifies the digest-linked release bundle:
// contract_snapshot.json, selector_snapshot.json, and release_manifest.json.
// CI diffs these artifacts across releases to catch content or behavioral
// drift before it ships.
package release

import (
	"fmt"
	"os"
	"path/filepath"

	"voicegate/internal/config"
	"voicegate/internal/contract"
	"voicegate/internal/digest"
	"voicegate/internal/engine"
	"voicegate/internal/voice"
)

const (
	SchemaVersion           = "R1.0"
	SelectorSnapshotVersion = "R3"

	ManifestFile         = "release_manifest.json"
	ContractSnapshotFile = "contract_snapshot.json"
	SelectorSnapshotFile = "selector_snapshot.json"
)

// Fixed script for the selector determinism snapshot: twelve emotional turns
// with a scripted signal sequence, replayed identically by every verifier.
// The scripted utterance is recorded in the snapshot payload so verifiers
// can replay the exact sequence.
const (
	selectorDeterminismTurns = 12
	selectorDeterminismInput = "I feel lost."
)

var selectorSignalSequence = []engine.EmotionalSignals{
	{LangMode: "en"},
	{LangMode: "en", HasOverwhelm: true},
	{LangMode: "en", HasGuilt: true},
	{LangMode: "en", WantsAction: true},
	{LangMode: "en"},
	{LangMode: "en", HasOverwhelm: true, HasGuilt: true},
	{LangMode: "en"},
	{LangMode: "en"},
	{LangMode: "en", WantsAction: true, HasOverwhelm: true},
	{LangMode: "en", HasGuilt: true},
	{LangMode: "en", HasResignation: true, Theme: "resignation"},
	{LangMode: "en", FamilyTheme: true, Theme: "family"},
}

// EngineFingerprint derives a stable fingerprint from the engine identity.
func EngineFingerprint(identity config.EngineConfig) (string, error) {
	canonical, err := digest.CanonicalJSON(map[string]any{
		"name":          identity.Name,
		"version":       identity.Version,
		"release_stage": identity.ReleaseStage,
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint engine identity: %w", err)
	}
	return digest.Sha256Prefix + digest.SHA256Hex(canonical), nil
}

// buildContractSnapshot captures the contract's canonical form and its
// fingerprint alongside the engine fingerprint.
func buildContractSnapshot(doc *contract.Document, engineFingerprint string) (map[string]any, error) {
	canonical, err := digest.CanonicalJSON(doc.Raw())
	if err != nil {
		return nil, fmt.Errorf("canonicalize contract: %w", err)
	}
	return map[string]any{
		"contract_version":       doc.Version(),
		"contract_fingerprint":   digest.SHA256Hex(canonical),
		"engine_fingerprint":     engineFingerprint,
		"contract_raw_canonical": canonical,
	}, nil
}

// buildSelectorSnapshot runs the scripted twelve-turn sequence against a
// fresh session and records, per turn, the resolved skeleton, the chosen
// variant indices, and a digest of the assembled response.
func buildSelectorSnapshot(doc *contract.Document, engineFingerprint string) (map[string]any, error) {
	state := voice.NewSessionState()
	turns := make([]any, 0, selectorDeterminismTurns)

	for turnIndex := 0; turnIndex < selectorDeterminismTurns; turnIndex++ {
		signals := selectorSignalSequence[turnIndex]
		resolution := engine.ResolveEmotionalSkeleton(state, signals)
		skeleton := resolution.Skeleton
		language := resolution.EmotionalLang

		pools := make(map[string][]contract.Variant)
		for _, section := range voice.SectionsFor(skeleton) {
			variants, err := doc.VariantEntries(skeleton, language, section)
			if err != nil {
				return nil, fmt.Errorf("turn %d: %w", turnIndex, err)
			}
			pools[section] = variants
		}

		selection, err := voice.SelectVariants(state, skeleton, language, pools)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", turnIndex, err)
		}

		responseText, err := voice.Assemble(skeleton, selection.Texts)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", turnIndex, err)
		}

		indices := make(map[string]any, len(selection.Indices))
		for section, index := range selection.Indices {
			indices[section] = index
		}
		turns = append(turns, map[string]any{
			"turn_index":               turnIndex,
			"resolved_skeleton":        skeleton,
			"selected_variant_indices": indices,
			"response_digest":          digest.SHA256Hex(responseText),
		})

		engine.UpdateSessionState(state, engine.IntentEmotional, resolution)
	}

	return map[string]any{
		"selector_snapshot_version": SelectorSnapshotVersion,
		"engine_fingerprint":        engineFingerprint,
		"determinism_input":         selectorDeterminismInput,
		"turns":                     turns,
	}, nil
}

// Snapshot writes the three-artifact bundle into dir. The manifest digest is
// computed over the manifest without its own digest entry, then recorded in
// the manifest itself, so the written manifest is self-verifying.
func Snapshot(doc *contract.Document, identity config.EngineConfig, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create release dir: %w", err)
	}

	engineFingerprint, err := EngineFingerprint(identity)
	if err != nil {
		return err
	}

	contractSnapshot, err := buildContractSnapshot(doc, engineFingerprint)
	if err != nil {
		return err
	}
	contractCanonical, err := digest.CanonicalJSON(contractSnapshot)
	if err != nil {
		return fmt.Errorf("canonicalize contract snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ContractSnapshotFile), []byte(contractCanonical), 0o644); err != nil {
		return fmt.Errorf("write contract snapshot: %w", err)
	}

	selectorSnapshot, err := buildSelectorSnapshot(doc, engineFingerprint)
	if err != nil {
		return err
	}
	selectorCanonical, err := digest.CanonicalJSON(selectorSnapshot)
	if err != nil {
		return fmt.Errorf("canonicalize selector snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SelectorSnapshotFile), []byte(selectorCanonical), 0o644); err != nil {
		return fmt.Errorf("write selector snapshot: %w", err)
	}

	manifest := map[string]any{
		"release_schema_version":   SchemaVersion,
		"contract_fingerprint":     contractSnapshot["contract_fingerprint"],
		"selector_snapshot_digest": digest.SHA256Hex(selectorCanonical),
		"engine_fingerprint":       engineFingerprint,
		"artifact_digests": map[string]any{
			ContractSnapshotFile: digest.SHA256Hex(contractCanonical),
			SelectorSnapshotFile: digest.SHA256Hex(selectorCanonical),
		},
	}

	manifestCanonical, err := digest.CanonicalJSON(manifest)
	if err != nil {
		return fmt.Errorf("canonicalize manifest: %w", err)
	}
	manifest["artifact_digests"].(map[string]any)[ManifestFile] = digest.SHA256Hex(manifestCanonical)

	finalManifest, err := digest.CanonicalJSON(manifest)
	if err != nil {
		return fmt.Errorf("canonicalize manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(finalManifest), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
