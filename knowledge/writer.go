package knowledge

import (
	"context"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/model"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// ResolveCardNames looks up the catalogue names referenced by the
// hypothesis. Missing entries leave the name empty.
func ResolveCardNames(ctx context.Context, env scout.Environment, h *model.Hypothesis) (CardNames, error) {
	names := CardNames{}
	catcher := grip.NewBasicCatcher()

	if h.VPPointID != nil {
		vps, err := model.FindVPPointsByIDs(ctx, env, []int{*h.VPPointID})
		catcher.Add(err)
		if len(vps) > 0 {
			names.VPPoint = vps[0].Name
		}
	}
	if h.ICPID != nil {
		icps, err := model.FindICPsByIDs(ctx, env, []int{*h.ICPID})
		catcher.Add(err)
		if len(icps) > 0 {
			names.ICP = icps[0].Name
		}
	}
	if h.SubVerticalID != nil {
		subs, err := model.FindSubVerticalsByIDs(ctx, env, []int{*h.SubVerticalID})
		catcher.Add(err)
		if len(subs) > 0 {
			names.SubVertical = subs[0].Name
		}
	}

	return names, catcher.Resolve()
}

// RenderEnrichedCard builds the card with resolved names and the Facts
// section.
func RenderEnrichedCard(ctx context.Context, env scout.Environment, h *model.Hypothesis) (string, error) {
	names, err := ResolveCardNames(ctx, env, h)
	if err != nil {
		// names are cosmetic; keep going with what resolved
		grip.Warning(message.WrapError(err, message.Fields{
			"message":    "problem resolving card names",
			"hypothesis": h.ID,
		}))
	}

	talSize, err := model.CountTALAccounts(ctx, env, h.ID)
	if err != nil {
		return "", errors.WithStack(err)
	}
	metrics, err := model.GetHypothesisMetrics(ctx, env, h.ID)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return EnrichCard(RenderCard(h, names), CardFacts{TALSize: talSize, Metrics: metrics}), nil
}

// WriteCard stores the enriched card of the hypothesis, or the base card when
// the facts cannot be gathered. It returns the card name and content.
func WriteCard(ctx context.Context, env scout.Environment, store *Store, h *model.Hypothesis) (string, string, error) {
	if store == nil {
		return "", "", errors.New("no card store configured")
	}

	content, err := RenderEnrichedCard(ctx, env, h)
	if err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message":    "writing base card instead of enriched card",
			"hypothesis": h.ID,
		}))
		content = RenderCard(h, CardNames{})
	}

	name := Filename(h)
	if err = store.Put(ctx, name, content); err != nil {
		return "", "", errors.WithStack(err)
	}
	return name, content, nil
}
