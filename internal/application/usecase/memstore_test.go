package usecase_test

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/internal/domain/repository"
)

// memStore persistencia en memoria con la semántica de los repositorios postgres:
// listados ordenados por id, (nil, nil) si no hay fila, y Run con rollback ante error.
type memStore struct {
	nextID  int64
	kpis    map[int64]*entity.Kpi
	reports map[int64]*entity.Report // sin Kpis; el conjunto vive en links
	links   map[int64][]int64        // report_id -> kpi_ids en orden de inserción
	users   map[int64]*entity.User
	txRuns  int
}

func newMemStore() *memStore {
	return &memStore{
		kpis:    map[int64]*entity.Kpi{},
		reports: map[int64]*entity.Report{},
		links:   map[int64][]int64{},
		users:   map[int64]*entity.User{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) kpiRepo() *memKpiRepo       { return &memKpiRepo{s} }
func (s *memStore) reportRepo() *memReportRepo { return &memReportRepo{s} }
func (s *memStore) userRepo() *memUserRepo     { return &memUserRepo{s} }
func (s *memStore) txRunner() *memTx           { return &memTx{s} }

func cloneKpi(k *entity.Kpi) *entity.Kpi {
	c := *k
	if k.EndDate != nil {
		end := *k.EndDate
		c.EndDate = &end
	}
	return &c
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

type memTx struct{ s *memStore }

func (t *memTx) Run(_ context.Context, fn func(repository.KpiRepository, repository.ReportRepository) error) error {
	t.s.txRuns++
	kpis := make(map[int64]*entity.Kpi, len(t.s.kpis))
	for id, k := range t.s.kpis {
		kpis[id] = cloneKpi(k)
	}
	reports := make(map[int64]*entity.Report, len(t.s.reports))
	for id, r := range t.s.reports {
		c := *r
		reports[id] = &c
	}
	links := make(map[int64][]int64, len(t.s.links))
	for id, l := range t.s.links {
		links[id] = slices.Clone(l)
	}

	if err := fn(t.s.kpiRepo(), t.s.reportRepo()); err != nil {
		t.s.kpis, t.s.reports, t.s.links = kpis, reports, links
		return err
	}
	return nil
}

// ── KpiRepository ─────────────────────────────────────────────────────────────

type memKpiRepo struct{ s *memStore }

func (r *memKpiRepo) Create(_ context.Context, k *entity.Kpi) error {
	k.ID = r.s.id()
	r.s.kpis[k.ID] = cloneKpi(k)
	return nil
}

func (r *memKpiRepo) GetByID(_ context.Context, id int64) (*entity.Kpi, error) {
	k, ok := r.s.kpis[id]
	if !ok {
		return nil, nil
	}
	return cloneKpi(k), nil
}

func (r *memKpiRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Kpi, error) {
	return r.GetByID(ctx, id)
}

func (r *memKpiRepo) Update(_ context.Context, k *entity.Kpi) error {
	cur, ok := r.s.kpis[k.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Value, cur.Threshold, cur.Active = k.Value, k.Threshold, k.Active
	return nil
}

// Delete no arrastra report_kpi: así los tests verifican que el caso de uso desasocia antes.
func (r *memKpiRepo) Delete(_ context.Context, id int64) error {
	delete(r.s.kpis, id)
	return nil
}

func (r *memKpiRepo) List(_ context.Context, f entity.KpiFilter) ([]*entity.Kpi, error) {
	var out []*entity.Kpi
	for _, id := range sortedKeys(r.s.kpis) {
		if k := r.s.kpis[id]; f.Matches(k) {
			out = append(out, cloneKpi(k))
		}
	}
	return out, nil
}

func (r *memKpiRepo) ListByReportAuthor(_ context.Context, userID int64) ([]*entity.Kpi, error) {
	seen := map[int64]bool{}
	for _, rid := range sortedKeys(r.s.reports) {
		if r.s.reports[rid].OwnerID != userID {
			continue
		}
		for _, kid := range r.s.links[rid] {
			seen[kid] = true
		}
	}
	var out []*entity.Kpi
	for _, id := range sortedKeys(seen) {
		out = append(out, cloneKpi(r.s.kpis[id]))
	}
	return out, nil
}

// ── ReportRepository ──────────────────────────────────────────────────────────

type memReportRepo struct{ s *memStore }

func (r *memReportRepo) load(id int64) *entity.Report {
	rep, ok := r.s.reports[id]
	if !ok {
		return nil
	}
	c := *rep
	c.Kpis = nil
	for _, kid := range r.s.links[id] {
		if k, ok := r.s.kpis[kid]; ok {
			c.Kpis = append(c.Kpis, cloneKpi(k))
		}
	}
	sort.Slice(c.Kpis, func(i, j int) bool { return c.Kpis[i].ID < c.Kpis[j].ID })
	return &c
}

func (r *memReportRepo) Create(_ context.Context, rep *entity.Report) error {
	rep.ID = r.s.id()
	c := *rep
	c.Kpis = nil
	r.s.reports[rep.ID] = &c
	r.s.links[rep.ID] = nil
	return nil
}

func (r *memReportRepo) GetByID(_ context.Context, id int64) (*entity.Report, error) {
	return r.load(id), nil
}

func (r *memReportRepo) GetByIDForUpdate(_ context.Context, id int64) (*entity.Report, error) {
	return r.load(id), nil
}

func (r *memReportRepo) GetByIDAndOwner(_ context.Context, id, ownerID int64) (*entity.Report, error) {
	rep := r.load(id)
	if rep == nil || rep.OwnerID != ownerID {
		return nil, nil
	}
	return rep, nil
}

func (r *memReportRepo) Delete(_ context.Context, id int64) error {
	delete(r.s.reports, id)
	delete(r.s.links, id)
	return nil
}

func (r *memReportRepo) list(keep func(*entity.Report) bool) []*entity.Report {
	var out []*entity.Report
	for _, id := range sortedKeys(r.s.reports) {
		if keep(r.s.reports[id]) {
			out = append(out, r.load(id))
		}
	}
	return out
}

func (r *memReportRepo) ListSince(_ context.Context, since time.Time) ([]*entity.Report, error) {
	return r.list(func(rep *entity.Report) bool { return !rep.ReportDate.Before(since) }), nil
}

func (r *memReportRepo) ListByAuthorRole(_ context.Context, role entity.Role) ([]*entity.Report, error) {
	return r.list(func(rep *entity.Report) bool {
		u, ok := r.s.users[rep.OwnerID]
		return ok && u.HasRole(role)
	}), nil
}

func (r *memReportRepo) ListByOwner(_ context.Context, ownerID int64) ([]*entity.Report, error) {
	return r.list(func(rep *entity.Report) bool { return rep.OwnerID == ownerID }), nil
}

func (r *memReportRepo) AddKpi(_ context.Context, reportID, kpiID int64) error {
	if _, ok := r.s.reports[reportID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := r.s.kpis[kpiID]; !ok {
		return domain.ErrNotFound
	}
	if slices.Contains(r.s.links[reportID], kpiID) {
		return domain.ErrAlreadyExists
	}
	r.s.links[reportID] = append(r.s.links[reportID], kpiID)
	return nil
}

func (r *memReportRepo) RemoveKpi(_ context.Context, reportID, kpiID int64) error {
	l := r.s.links[reportID]
	i := slices.Index(l, kpiID)
	if i < 0 {
		return domain.ErrNotFound
	}
	r.s.links[reportID] = slices.Delete(l, i, i+1)
	return nil
}

func (r *memReportRepo) DetachKpi(_ context.Context, kpiID int64) error {
	for rid, l := range r.s.links {
		r.s.links[rid] = slices.DeleteFunc(l, func(id int64) bool { return id == kpiID })
	}
	return nil
}

// ── UserRepository (solo lo que usan reportes) ────────────────────────────────

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	u.ID = r.s.id()
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) List(context.Context, int, int) ([]*entity.User, error) { return nil, nil }
func (r *memUserRepo) Update(context.Context, *entity.User) error              { return nil }
func (r *memUserRepo) Delete(context.Context, int64) error                     { return nil }
func (r *memUserRepo) AddRole(context.Context, int64, entity.Role) error       { return nil }
func (r *memUserRepo) RemoveRole(context.Context, int64, entity.Role) error    { return nil }

// ── PDF ───────────────────────────────────────────────────────────────────────

type fakePDF struct {
	calls  int
	author *entity.User
}

func (f *fakePDF) GenerateReportPDF(_ context.Context, _ *entity.Report, author *entity.User) ([]byte, error) {
	f.calls++
	f.author = author
	return []byte("%PDF-1.3 fake"), nil
}

var (
	_ repository.KpiRepository    = (*memKpiRepo)(nil)
	_ repository.ReportRepository = (*memReportRepo)(nil)
	_ repository.UserRepository   = (*memUserRepo)(nil)
)
