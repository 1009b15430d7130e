package lookup

import (
	"context"

	"github.com/veriperu/dniverify/internal/domain"
)

// Provider drives one external registry's verification flow for one DNI.
// Implementations own their session handling, anti-automation challenges and
// bounded retries; they must return within a bounded time.
//
// ProcessDNI returns an error only for unrecoverable session failures. A
// lookup that exhausts its retry budget resolves to Found=false with a
// diagnostic Reason instead.
type Provider interface {
	// Init (re)establishes the provider session. Workers call it on start
	// and after every transport failure.
	Init(ctx context.Context) error
	ProcessDNI(ctx context.Context, dni string) (domain.LookupResult, error)
}
