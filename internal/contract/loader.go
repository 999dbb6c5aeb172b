// Package contract loads and validates the versioned voice contract: the
// JSON document describing, per skeleton, language, and section, the allowed
// phrasing variants, plus per-category guardrail override text. The contract
// is loaded once, validated eagerly, and content-fingerprinted; any
// structural violation blocks startup.
package contract

import (
	"encoding/json"
	"fmt"
	"os"

	"voicegate/internal/digest"
)

// Allowed top-level skeleton keys.
var AllowedSkeletons = map[string]bool{"A": true, "B": true, "C": true, "D": true}

// Allowed language keys.
var AllowedLanguages = map[string]bool{"en": true, "hi": true, "hinglish": true}

// Valid guardrail category keys inside a contract guardrail block.
var ValidGuardrailCategories = map[string]bool{
	"self_harm":       true,
	"abuse":           true,
	"jailbreak":       true,
	"extremism":       true,
	"system_probe":    true,
	"data_extraction": true,
	"manipulation":    true,
}

// Variant is a normalized phrasing variant. A nil ToneTags means the variant
// is universal and matches any tone profile.
type Variant struct {
	Text     string
	ToneTags []string
}

// Document is a loaded, validated voice contract. It is immutable after
// Load and safe to share across sessions without locking.
type Document struct {
	version     string
	fingerprint string
	raw         map[string]any
}

// Load reads, validates, and fingerprints the contract at path. Any
// validation failure is returned before the document can serve requests.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read voice contract: %w", err)
	}
	return Parse(data)
}

// Parse validates and fingerprints raw contract bytes.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse voice contract: %w", err)
	}
	if err := validateStructure(raw); err != nil {
		return nil, err
	}

	fingerprint, err := digest.ArtifactDigest(raw)
	if err != nil {
		return nil, fmt.Errorf("fingerprint voice contract: %w", err)
	}

	version := "unknown"
	if v, ok := raw["contract_version"].(string); ok {
		version = v
	}

	return &Document{
		version:     version,
		fingerprint: fingerprint,
		raw:         raw,
	}, nil
}

// Version returns the contract_version string, or "unknown" when absent.
func (d *Document) Version() string {
	return d.version
}

// Fingerprint returns the canonical-JSON SHA-256 digest of the full
// contract content.
func (d *Document) Fingerprint() string {
	return d.fingerprint
}

// Raw returns the underlying document for snapshotting. Callers must not
// mutate the returned map.
func (d *Document) Raw() map[string]any {
	return d.raw
}

// VariantEntries returns the normalized variant pool for a normal-flow
// section under skeleton/language.
func (d *Document) VariantEntries(skeleton, language, section string) ([]Variant, error) {
	if !AllowedSkeletons[skeleton] {
		return nil, &Error{Path: skeleton, Reason: fmt.Sprintf("skeleton %q is not allowed", skeleton)}
	}
	if !AllowedLanguages[language] {
		return nil, &Error{Path: skeleton + "." + language, Reason: fmt.Sprintf("language %q is not allowed", language)}
	}

	langBlock, ok := d.languageBlock(skeleton, language)
	if !ok {
		return nil, &Error{
			Path:   skeleton + "." + language + "." + section,
			Reason: "variants not found",
		}
	}
	rawVariants, ok := langBlock[section].([]any)
	if !ok {
		return nil, &Error{
			Path:   skeleton + "." + language + "." + section,
			Reason: "variants payload must be a list",
		}
	}
	return normalizeVariantList(rawVariants, skeleton+"."+language+"."+section)
}

func (d *Document) skeletonBlock(skeleton string) (map[string]any, bool) {
	skeletons, ok := d.raw["skeletons"].(map[string]any)
	if !ok {
		return nil, false
	}
	block, ok := skeletons[skeleton].(map[string]any)
	return block, ok
}

func (d *Document) languageBlock(skeleton, language string) (map[string]any, bool) {
	block, ok := d.skeletonBlock(skeleton)
	if !ok {
		return nil, false
	}
	langBlock, ok := block[language].(map[string]any)
	return langBlock, ok
}

func normalizeVariantList(rawVariants []any, path string) ([]Variant, error) {
	variants := make([]Variant, 0, len(rawVariants))
	for i, rawVariant := range rawVariants {
		variant, err := normalizeVariant(rawVariant, path, i)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}
	return variants, nil
}

func normalizeVariant(raw any, path string, index int) (Variant, error) {
	switch v := raw.(type) {
	case string:
		return Variant{Text: v}, nil
	case map[string]any:
		text, ok := v["text"].(string)
		if !ok {
			return Variant{}, &Error{
				Path:   path,
				Reason: fmt.Sprintf("variant %d has invalid text field", index),
			}
		}
		rawTags, present := v["tone_tags"]
		if !present || rawTags == nil {
			return Variant{Text: text}, nil
		}
		tagList, ok := rawTags.([]any)
		if !ok {
			return Variant{}, &Error{
				Path:   path,
				Reason: fmt.Sprintf("variant %d has invalid tone_tags", index),
			}
		}
		tags := make([]string, 0, len(tagList))
		for _, tag := range tagList {
			s, ok := tag.(string)
			if !ok {
				return Variant{}, &Error{
					Path:   path,
					Reason: fmt.Sprintf("variant %d has invalid tone_tags", index),
				}
			}
			tags = append(tags, s)
		}
		return Variant{Text: text, ToneTags: tags}, nil
	default:
		return Variant{}, &Error{
			Path:   path,
			Reason: fmt.Sprintf("variant %d must be a string or an object", index),
		}
	}
}
