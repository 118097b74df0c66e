package positions

import (
	"context"
	"testing"

	"tradefolio/internal/apperr"
	"tradefolio/internal/policy"
	"tradefolio/internal/portfolios"
	"tradefolio/internal/refdata"
	"tradefolio/internal/store/memory"
	"tradefolio/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = policy.Actor{UserID: 1, Role: types.RoleUser}
	bob   = policy.Actor{UserID: 2, Role: types.RoleUser}
)

func TestPositions(t *testing.T) {
	st := memory.New(nil)
	svc := NewService(st, nil, nil)
	ps := portfolios.NewService(st, nil, nil)
	groups := refdata.NewService(st, nil, nil)
	ctx := context.Background()

	core, err := ps.CreatePortfolio(ctx, alice, portfolios.Input{Name: "Core"})
	require.NoError(t, err)
	momentum, err := ps.CreateStrategy(ctx, alice, portfolios.Input{Name: "Momentum"})
	require.NoError(t, err)
	posGroup, err := groups.CreateGroup(ctx, alice, refdata.GroupInput{Name: "hedges", Type: types.GroupTypePosition})
	require.NoError(t, err)
	pfGroup, err := groups.CreateGroup(ctx, alice, refdata.GroupInput{Name: "income", Type: types.GroupTypePortfolio})
	require.NoError(t, err)

	_, err = svc.Create(ctx, alice, PositionInput{Type: "FLAT"})
	assert.Equal(t, "type", apperr.FieldOf(err))

	_, err = svc.Create(ctx, alice, PositionInput{Type: types.PositionTypeLong, GroupID: &pfGroup.ID})
	require.True(t, apperr.IsReference(err))
	assert.Equal(t, "groupId", apperr.FieldOf(err))

	_, err = svc.Create(ctx, bob, PositionInput{Type: types.PositionTypeLong, PortfolioID: &core.ID})
	require.True(t, apperr.IsReference(err), "another user's portfolio")
	assert.Equal(t, "portfolioId", apperr.FieldOf(err))

	p, err := svc.Create(ctx, alice, PositionInput{
		Type:        types.PositionTypeLong,
		GroupID:     &posGroup.ID,
		PortfolioID: &core.ID,
		StrategyID:  &momentum.ID,
	})
	require.NoError(t, err)

	short := types.PositionTypeShort
	p, err = svc.Update(ctx, alice, p.ID, PositionPatch{Type: &short, StrategyID: types.Null[int64]()})
	require.NoError(t, err)
	assert.Equal(t, types.PositionTypeShort, p.Type)
	assert.Nil(t, p.StrategyID)
	assert.Equal(t, core.ID, *p.PortfolioID)
}

func TestPortfolioDeleteDoesNotCascade(t *testing.T) {
	st := memory.New(nil)
	svc := NewService(st, nil, nil)
	ps := portfolios.NewService(st, nil, nil)
	ctx := context.Background()

	core, err := ps.CreatePortfolio(ctx, alice, portfolios.Input{Name: "Core"})
	require.NoError(t, err)
	p, err := svc.Create(ctx, alice, PositionInput{Type: types.PositionTypeLong, PortfolioID: &core.ID})
	require.NoError(t, err)

	require.NoError(t, ps.DeletePortfolio(ctx, alice, core.ID))

	got, err := svc.Get(ctx, alice, p.ID)
	require.NoError(t, err, "positions outlive their portfolio")
	assert.Equal(t, core.ID, *got.PortfolioID)

	descr := "orphaned"
	_, err = svc.Update(ctx, alice, p.ID, PositionPatch{Descr: &descr})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, alice, PositionInput{Type: types.PositionTypeLong, PortfolioID: &core.ID})
	require.True(t, apperr.IsReference(err))
	assert.Equal(t, "portfolioId", apperr.FieldOf(err))

	_, err = svc.Update(ctx, alice, p.ID, PositionPatch{PortfolioID: types.Some(core.ID)})
	assert.True(t, apperr.IsReference(err), "re-pointing at a deleted portfolio")

	require.NoError(t, svc.SoftDelete(ctx, alice, p.ID))
	_, err = svc.Get(ctx, alice, p.ID)
	assert.True(t, apperr.IsNotFound(err))
}
