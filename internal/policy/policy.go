// Package policy loads ledger policy from CUE files.
//
// A policy constrains what the CLI will record and serve: which
// operation types may be appended, the verifier identity logged on
// verifications, and the chain page size cap. The zero policy allows
// everything with the built-in defaults, so running without a policy
// file stays fully functional.
package policy

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tecp/internal/receipt"
)

// Policy is the deployable ledger configuration.
type Policy struct {
	// AllowedOperations lists the operation types the ledger accepts.
	// Empty means every type is allowed.
	AllowedOperations []string `json:"allowed_operations"`

	// Verifier is the identity logged on verification rows when the
	// caller does not supply one.
	Verifier string `json:"verifier"`

	// MaxPageSize caps the number of summaries a chain page returns.
	MaxPageSize int64 `json:"max_page_size"`
}

// Default returns the policy used when no policy file is given.
func Default() Policy {
	return Policy{
		Verifier:    receipt.DefaultVerifier,
		MaxPageSize: 100,
	}
}

// Allows reports whether the policy permits recording opType.
func (p Policy) Allows(opType string) bool {
	if len(p.AllowedOperations) == 0 {
		return true
	}
	for _, allowed := range p.AllowedOperations {
		if allowed == opType {
			return true
		}
	}
	return false
}

// ClampPageSize bounds a requested chain page size to the policy cap.
// Non-positive requests get the full cap.
func (p Policy) ClampPageSize(count int64) int64 {
	if count <= 0 || count > p.MaxPageSize {
		return p.MaxPageSize
	}
	return count
}

// Violations filters a by-operation-type count down to the entries the
// policy does not allow. Returns nil when the policy allows all types
// or every counted type is permitted.
func (p Policy) Violations(byType map[string]int64) map[string]int64 {
	if len(p.AllowedOperations) == 0 {
		return nil
	}
	violations := map[string]int64{}
	for opType, count := range byType {
		if !p.Allows(opType) {
			violations[opType] = count
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return violations
}

// LoadError represents an error that occurred during policy loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Policy file not found
	ErrCodeBuildFailed = "E003" // CUE compile/build failed
	ErrCodeDecode      = "E004" // CUE value does not decode into a policy

	// Policy validation errors
	ErrCodeEmptyOperation = "E101" // Blank entry in allowed_operations
	ErrCodeBadPageSize    = "E102" // max_page_size not positive
)

// Load reads and validates a policy from a single CUE file.
//
// Omitted fields keep their defaults, so a policy file may constrain
// only the dimension it cares about.
func Load(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Policy{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("policy file not found: %s", path)}
	}
	if err != nil {
		return Policy{}, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("error reading policy file: %v", err)}
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return Policy{}, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	p := Default()
	if err := value.Decode(&p); err != nil {
		return Policy{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("decoding policy: %v", err)}
	}

	if err := p.validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p Policy) validate() error {
	for _, op := range p.AllowedOperations {
		if op == "" {
			return &LoadError{Code: ErrCodeEmptyOperation, Message: "allowed_operations must not contain blank entries"}
		}
	}
	if p.MaxPageSize <= 0 {
		return &LoadError{Code: ErrCodeBadPageSize, Message: fmt.Sprintf("max_page_size must be positive, got %d", p.MaxPageSize)}
	}
	return nil
}
