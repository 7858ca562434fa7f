package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = BearerToken("abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = BearerToken("bearer   abc.def  ")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	for _, raw := range []string{"", "   ", "Bearer", "Bearer ", "bearer   ", "Bearer a b"} {
		_, err := BearerToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/rfqs", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: time.Now(), ID: uuid.New()})
	req = httptest.NewRequest(http.MethodGet, "/rfqs?limit=10&cursor="+cursor, nil)
	params, err = ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, cursor, params.Cursor)

	req = httptest.NewRequest(http.MethodGet, "/rfqs?cursor=not-base64!", nil)
	_, err = ParsePagination(req)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	req = httptest.NewRequest(http.MethodGet, "/rfqs?limit=500", nil)
	_, err = ParsePagination(req)
	require.Error(t, err)
}

func TestParseQueryFilters(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/shipments?status=assigned&warehouse_id="+id.String()+"&active=false", nil)

	status, err := ParseQueryEnum(req, "status", enums.ParseShipmentStatus)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, enums.ShipmentStatusAssigned, *status)

	wh, err := ParseQueryUUID(req, "warehouse_id")
	require.NoError(t, err)
	assert.Equal(t, id, *wh)

	active, err := ParseQueryBool(req, "active")
	require.NoError(t, err)
	assert.False(t, *active)

	missing, err := ParseQueryUUID(req, "product_id")
	require.NoError(t, err)
	assert.Nil(t, missing)

	bad := httptest.NewRequest(http.MethodGet, "/shipments?status=lost", nil)
	_, err = ParseQueryEnum(bad, "status", enums.ParseShipmentStatus)
	require.Error(t, err)
}

type decisionBody struct {
	Reason string `json:"reason" validate:"required,max=10"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":""}`))
	var body decisionBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, map[string]string{"reason": "is required"}, typed.Details())

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"ok","extra":1}`))
	require.Error(t, DecodeJSONBody(req, &body), "unknown fields are rejected")
}

func TestDecodeOptionalJSONBody(t *testing.T) {
	type optional struct {
		Note string `json:"note,omitempty" validate:"omitempty,max=5"`
	}
	var body optional
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, DecodeOptionalJSONBody(req, &body))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"too long"}`))
	require.Error(t, DecodeOptionalJSONBody(req, &body))
}
