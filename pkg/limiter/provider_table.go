package limiter

import (
	"context"

	"github.com/atlascope/atlascope/pkg/table"

	"golang.org/x/time/rate"
)

type TableProvider interface {
	Limiter
	table.Provider
}

type limitedTableProvider struct {
	limiter  *rate.Limiter
	provider table.Provider
}

func NewTableProvider(l *rate.Limiter, p table.Provider) TableProvider {
	return &limitedTableProvider{
		limiter:  l,
		provider: p,
	}
}

func (p *limitedTableProvider) limiterSetup() {
}

func (p *limitedTableProvider) Read(ctx context.Context, input table.Input) (*table.Table, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return p.provider.Read(ctx, input)
}
