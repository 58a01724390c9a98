package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kpi-tracker/internal/application/auth"
	"github.com/jhoicas/kpi-tracker/internal/application/dto"
	"github.com/jhoicas/kpi-tracker/internal/application/usecase"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/internal/domain/repository"
	apphttp "github.com/jhoicas/kpi-tracker/internal/interfaces/http"
	"github.com/jhoicas/kpi-tracker/pkg/logger"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type kpiStore struct {
	repository.KpiRepository // métodos no usados por estos tests
	rows                     map[int64]*entity.Kpi
	next                     int64
}

func (s *kpiStore) Create(_ context.Context, k *entity.Kpi) error {
	s.next++
	k.ID = s.next
	c := *k
	s.rows[k.ID] = &c
	return nil
}

func (s *kpiStore) GetByID(_ context.Context, id int64) (*entity.Kpi, error) {
	k, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	c := *k
	return &c, nil
}

func (s *kpiStore) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Kpi, error) {
	return s.GetByID(ctx, id)
}

func (s *kpiStore) Update(_ context.Context, k *entity.Kpi) error {
	c := *k
	s.rows[k.ID] = &c
	return nil
}

func (s *kpiStore) List(_ context.Context, f entity.KpiFilter) ([]*entity.Kpi, error) {
	var out []*entity.Kpi
	for _, k := range s.rows {
		if f.Matches(k) {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type directTx struct {
	kpis repository.KpiRepository
}

func (t directTx) Run(_ context.Context, fn func(repository.KpiRepository, repository.ReportRepository) error) error {
	return fn(t.kpis, nil)
}

type noUsers struct{ repository.UserRepository }

func (noUsers) GetByEmail(context.Context, string) (*entity.User, error) { return nil, nil }

type apiFixture struct {
	app  *fiber.App
	kpis *kpiStore
}

func newAPI(t *testing.T, authRate string) *apiFixture {
	t.Helper()
	kpis := &kpiStore{rows: map[int64]*entity.Kpi{}}
	log := logger.Nop()

	var deps apphttp.RouterDeps
	deps.Log = log
	deps.Resolver = auth.NewIdentityResolver(testJWTSecret)
	deps.AuthUC = auth.NewAuthUseCase(noUsers{}, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 5}, log)
	deps.KpiUC = usecase.NewKpiUseCase(kpis, directTx{kpis: kpis}, log)
	deps.ReportUC = usecase.NewReportUseCase(nil, nil, directTx{kpis: kpis}, nil, log)
	deps.UserUC = usecase.NewUserUseCase(noUsers{}, log)
	if authRate != "" {
		l, err := apphttp.NewMemoryLimiter(authRate)
		require.NoError(t, err)
		deps.AuthLimiter = l
	}

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	app.Use(apphttp.RequestLogger(log))
	apphttp.Router(app, deps)
	return &apiFixture{app: app, kpis: kpis}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

var kpiBody = map[string]interface{}{
	"name":      "Speed",
	"value":     "10",
	"threshold": "5",
	"startDate": "2024-01-01T00:00:00Z",
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestAPI_CrearKpi(t *testing.T) {
	api := newAPI(t, "")

	resp := api.do(t, http.MethodPost, "/api/kpis", bearer(t, "CEO"), kpiBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[dto.KpiResponse](t, resp)
	assert.Equal(t, "Speed", out.Name)
	assert.True(t, out.IsActive)
	assert.Equal(t, testUserID, out.OwnerID)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAPI_CrearKpi_EmployeeProhibido(t *testing.T) {
	api := newAPI(t, "")

	resp := api.do(t, http.MethodPost, "/api/kpis", bearer(t, "EMPLOYEE"), kpiBody)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, api.kpis.rows)
}

func TestAPI_CrearKpi_Validacion(t *testing.T) {
	api := newAPI(t, "")
	body := map[string]interface{}{"name": "  ", "value": "10", "threshold": "5", "startDate": "2024-01-01T00:00:00Z"}

	resp := api.do(t, http.MethodPost, "/api/kpis", bearer(t, "CEO"), body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", out.Code)
	assert.Equal(t, http.StatusBadRequest, out.Status)
}

func TestAPI_CrearKpi_PrecisionFueraDeColumna_400(t *testing.T) {
	api := newAPI(t, "")

	for _, value := range []string{"0.00001", "1.23456", "1e20"} {
		body := map[string]interface{}{"name": "Speed", "value": value, "threshold": "5", "startDate": "2024-01-01T00:00:00Z"}
		resp := api.do(t, http.MethodPost, "/api/kpis", bearer(t, "CEO"), body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, value)
		assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, resp).Code, value)
	}
	assert.Empty(t, api.kpis.rows)
}

func TestAPI_ActivarDosVeces_409(t *testing.T) {
	api := newAPI(t, "")
	created := decode[dto.KpiResponse](t, api.do(t, http.MethodPost, "/api/kpis", bearer(t, "CEO"), kpiBody))

	resp := api.do(t, http.MethodPut, "/api/kpis/"+itoa(created.ID)+"/activate", bearer(t, "CEO"), nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "ALREADY_IN_STATE", out.Code)
	assert.Equal(t, "This KPI already activated", out.Message)

	resp = api.do(t, http.MethodPut, "/api/kpis/"+itoa(created.ID)+"/deactivate", bearer(t, "CEO"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_KpiNoEncontrado_404(t *testing.T) {
	api := newAPI(t, "")

	resp := api.do(t, http.MethodGet, "/api/kpis/77", bearer(t, "EMPLOYEE"), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Kpi not found with id: 77", decode[dto.ErrorResponse](t, resp).Message)
}

func TestAPI_IdInvalido_400(t *testing.T) {
	api := newAPI(t, "")

	for _, path := range []string{"/api/kpis/abc", "/api/kpis/-3"} {
		resp := api.do(t, http.MethodGet, path, bearer(t, "CEO"), nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
	resp := api.do(t, http.MethodPut, "/api/reports/add-kpi?reportId=1", bearer(t, "EMPLOYEE"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Filtro(t *testing.T) {
	api := newAPI(t, "")
	api.do(t, http.MethodPost, "/api/kpis", bearer(t, "CEO"), kpiBody)

	for _, query := range []string{"?min=10&max=5", "?max=5&min=10"} {
		resp := api.do(t, http.MethodGet, "/api/kpis/filter"+query, bearer(t, "CEO"), nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
		assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, resp).Code)
	}

	resp := api.do(t, http.MethodGet, "/api/kpis/filter?min=5&max=5", bearer(t, "CEO"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/kpis/filter?min=abc", bearer(t, "CEO"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/kpis/filter", bearer(t, "CEO"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[dto.KpiListResponse](t, resp).Total)
}

func TestAPI_RutasEstaticasAntesQueId(t *testing.T) {
	api := newAPI(t, "")

	resp := api.do(t, http.MethodGet, "/api/kpis/active", bearer(t, "CEO"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.KpiListResponse](t, resp)
	assert.NotNil(t, out.Items)

	// /active es solo CEO; si cayera en /:id un EMPLOYEE recibiría 400 y no 403.
	resp = api.do(t, http.MethodGet, "/api/kpis/active", bearer(t, "EMPLOYEE"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_ReporteDiasNegativos_400(t *testing.T) {
	api := newAPI(t, "")

	resp := api.do(t, http.MethodGet, "/api/reports/recent?days=-1", bearer(t, "CEO"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/reports/recent?days=x", bearer(t, "CEO"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_SinToken_401(t *testing.T) {
	api := newAPI(t, "")

	resp := api.do(t, http.MethodGet, "/api/kpis", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_RegistroComoCEO_403(t *testing.T) {
	api := newAPI(t, "")
	body := map[string]interface{}{"email": "yo@x.com", "password": "secreto123", "roles": []string{"CEO"}}

	resp := api.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Only a CEO can assign role CEO", decode[dto.ErrorResponse](t, resp).Message)
}

func TestAPI_LoginInvalido_401YRateLimit(t *testing.T) {
	api := newAPI(t, "2-M")
	body := map[string]string{"email": "nadie@x.com", "password": "secreto123"}

	for i := 0; i < 2; i++ {
		resp := api.do(t, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIAL", decode[dto.ErrorResponse](t, resp).Code)
	}

	resp := api.do(t, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
}

func TestNewMemoryLimiter_FormatoInvalido(t *testing.T) {
	_, err := apphttp.NewMemoryLimiter("cinco-por-minuto")
	assert.Error(t, err)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
