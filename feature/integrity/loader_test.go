package integrity

import (
	"net/http/httptest"
	"testing"

	"rebelinux-site/core/middleware/auth"
	"rebelinux-site/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFeature(t *testing.T) {
	m := new(mocks.Client)
	m.On("BucketExists", mock.Anything, "site").Return(true, nil)
	m.On("ListObjects", mock.Anything, "site", mock.Anything).Return(listing())

	f := NewFeature(m, "site", zap.NewNop(), "secret")
	assert.Equal(t, "integrity", f.Name())
	assert.True(t, f.IsEnabled())

	app := fiber.New()
	require.NoError(t, f.Load(app))

	t.Run("Unauthorized", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/integrity/structure", nil))
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("Authorized", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/integrity/structure", nil)
		req.Header.Set(auth.HeaderName, "secret")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})
}
