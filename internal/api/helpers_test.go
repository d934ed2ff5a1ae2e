package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pageza/recipe-site/backend/internal/mocks"
	"github.com/pageza/recipe-site/backend/internal/service"
	"github.com/pageza/recipe-site/backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockedRouter struct {
	engine   *gin.Engine
	auth     *mocks.MockAuthService
	recipes  *mocks.MockRecipeService
	profiles *mocks.MockProfileService
	taxonomy *mocks.MockTaxonomyService
}

func setupMockedRouter(t *testing.T) *mockedRouter {
	r := &mockedRouter{
		engine:   gin.New(),
		auth:     &mocks.MockAuthService{},
		recipes:  &mocks.MockRecipeService{},
		profiles: &mocks.MockProfileService{},
		taxonomy: &mocks.MockTaxonomyService{},
	}
	RegisterRoutes(r.engine, Services{
		Auth:     r.auth,
		Profiles: r.profiles,
		Recipes:  r.recipes,
		Taxonomy: r.taxonomy,
	}, Options{Logger: zaptest.NewLogger(t)})
	return r
}

// signIn makes token authenticate as userID.
func (r *mockedRouter) signIn(token string, userID uuid.UUID, staff bool) *types.TokenClaims {
	claims := &types.TokenClaims{UserID: userID, Username: "user-" + token, IsStaff: staff}
	r.auth.On("ValidateToken", mock.Anything, token).Return(claims, nil)
	return claims
}

func performRequest(h http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// performMultipart sends fields and at most one file as multipart/form-data.
func performMultipart(t *testing.T, h http.Handler, method, path string, fields map[string]string, fileField string, file []byte, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "upload.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeValidation(t *testing.T, w *httptest.ResponseRecorder) ValidationResponse {
	t.Helper()
	var out ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func fieldNames(fields []service.FieldError) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return names
}
