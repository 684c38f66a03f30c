package diagnose

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/utils"
)

// Registry holds the priority-ordered module lists per family plus the
// family-agnostic fallback. It is built once at startup and read-only after.
type Registry struct {
	logger   *slog.Logger
	byFamily map[models.Family][]Module
	fallback Module
}

// NewRegistry returns a registry pre-populated with the built-in modules.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		logger:   logger,
		byFamily: make(map[models.Family][]Module),
		fallback: &GenericModule{},
	}

	logSig := &LogSignatureModule{}
	r.Register(models.FamilyCrashloop, &CrashloopModule{}, logSig)
	r.Register(models.FamilyOOMKill, &OOMKillModule{}, logSig)
	r.Register(models.FamilyCPUThrottling, &ThrottlingModule{})
	r.Register(models.FamilyPodNotReady, &NotReadyModule{}, logSig)
	r.Register(models.FamilyRolloutStuck, &RolloutModule{})
	r.Register(models.FamilyTargetDown, &TargetDownModule{})
	r.Register(models.FamilyUnknown, logSig)
	return r
}

// Register appends modules to a family's ordered list. Registration order is
// the priority order and part of the deterministic tie-break.
func (r *Registry) Register(family models.Family, modules ...Module) {
	r.byFamily[family] = append(r.byFamily[family], modules...)
}

type rankedHypothesis struct {
	hyp   models.Hypothesis
	order int
}

// Run selects applicable modules for the investigation's family, runs their
// collect phase, then their diagnose phase, and writes the de-duplicated,
// deterministically ranked hypothesis list onto the investigation.
//
// Identical input always yields identical output: hypotheses sort by
// confidence descending, then module registration order, then hypothesis id.
func (r *Registry) Run(ctx context.Context, inv *models.Investigation) {
	active := r.applicable(inv)

	for _, m := range active {
		r.collectOne(ctx, m, inv)
	}

	ranked := make([]rankedHypothesis, 0, len(active)*2)
	for i, m := range active {
		for _, h := range r.diagnoseOne(m, inv) {
			h.Confidence = clampConfidence(h.Confidence)
			ranked = append(ranked, rankedHypothesis{hyp: h, order: i})
		}
	}

	inv.Hypotheses = dedupeAndSort(ranked)
}

func (r *Registry) applicable(inv *models.Investigation) []Module {
	var active []Module
	for _, m := range r.byFamily[inv.Family] {
		if r.applicableOne(m, inv) {
			active = append(active, m)
		}
	}
	if len(active) == 0 {
		active = append(active, r.fallback)
	}
	return active
}

func (r *Registry) applicableOne(m Module, inv *models.Investigation) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			inv.AddError("diagnose:"+m.Name(), models.ErrKindCollection, fmt.Sprintf("applicable panicked: %v", rec))
			ok = false
		}
	}()
	return m.Applicable(inv)
}

func (r *Registry) collectOne(ctx context.Context, m Module, inv *models.Investigation) {
	defer func() {
		if rec := recover(); rec != nil {
			inv.AddError("diagnose:"+m.Name(), models.ErrKindCollection, fmt.Sprintf("collect panicked: %v", rec))
		}
	}()
	if err := m.Collect(ctx, inv); err != nil {
		inv.AddError("diagnose:"+m.Name(), models.ErrKindCollection, err.Error())
		r.logger.Debug("module collect degraded", slog.String("module", m.Name()), slog.Any("error", err))
	}
}

func (r *Registry) diagnoseOne(m Module, inv *models.Investigation) (out []models.Hypothesis) {
	defer func() {
		if rec := recover(); rec != nil {
			inv.AddError("diagnose:"+m.Name(), models.ErrKindCollection, fmt.Sprintf("diagnose panicked: %v", rec))
			out = nil
		}
	}()
	hyps, err := m.Diagnose(inv)
	if err != nil {
		kind := models.ErrKindCollection
		if utils.KindOf(err) == utils.KindValidation {
			kind = models.ErrKindValidation
		}
		inv.AddError("diagnose:"+m.Name(), kind, err.Error())
		return nil
	}
	return hyps
}

// dedupeAndSort keeps the highest-confidence hypothesis per id and orders the
// survivors deterministically.
func dedupeAndSort(ranked []rankedHypothesis) []models.Hypothesis {
	best := make(map[string]rankedHypothesis, len(ranked))
	ids := make([]string, 0, len(ranked))
	for _, rh := range ranked {
		cur, seen := best[rh.hyp.ID]
		if !seen {
			best[rh.hyp.ID] = rh
			ids = append(ids, rh.hyp.ID)
			continue
		}
		if rh.hyp.Confidence > cur.hyp.Confidence {
			best[rh.hyp.ID] = rh
		}
	}

	survivors := make([]rankedHypothesis, 0, len(ids))
	for _, id := range ids {
		survivors = append(survivors, best[id])
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		if a.hyp.Confidence != b.hyp.Confidence {
			return a.hyp.Confidence > b.hyp.Confidence
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.hyp.ID < b.hyp.ID
	})

	out := make([]models.Hypothesis, 0, len(survivors))
	for _, rh := range survivors {
		out = append(out, rh.hyp)
	}
	return out
}
