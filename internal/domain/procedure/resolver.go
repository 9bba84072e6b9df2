package procedure

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clinadmin/clinadmin/internal/lookup"
)

// FallbackName labels line items whose CUPS code has no catalog entry.
const FallbackName = "Procedimiento no registrado"

// Valuation is the billing view of a procedure: what to print on the line
// item and what to charge. Unpriced marks codes that have no usable price;
// their value is always zero.
type Valuation struct {
	Nombre   string
	Valor    float64
	Unpriced bool
}

// Resolver resolves CUPS codes to valuations through a run-scoped cache.
// The catalog is fetched at most once per run; codes that stay unresolved
// after the fetch are remembered as missing.
type Resolver struct {
	repo   Repository
	cache  *lookup.Cache[*Procedure]
	logger zerolog.Logger
}

func NewResolver(repo Repository, logger zerolog.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		cache:  lookup.New[*Procedure](),
		logger: logger,
	}
}

func (r *Resolver) fetchCatalog(ctx context.Context) error {
	procedures, err := r.repo.ListAll(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("fetch procedure catalog")
		return err
	}
	for _, p := range procedures {
		r.cache.RegisterAliases(p, p.CodigoCups, p.ID)
	}
	return nil
}

// Resolve returns the valuation for a CUPS code. Unknown codes and codes
// without a stored price come back flagged as unpriced with value zero.
func (r *Resolver) Resolve(ctx context.Context, codigoCups string) Valuation {
	p, ok := r.cache.GetOrFetch(ctx, "catalogo", codigoCups, r.fetchCatalog)
	if !ok {
		r.logger.Warn().Str("codigoCups", codigoCups).Msg("procedure not in catalog")
		return Valuation{Nombre: FallbackName, Valor: 0, Unpriced: true}
	}

	nombre := p.Nombre
	if nombre == "" {
		nombre = FallbackName
	}
	if !p.ValorDefinido {
		return Valuation{Nombre: nombre, Valor: 0, Unpriced: true}
	}
	return Valuation{Nombre: nombre, Valor: p.Valor}
}
