package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name     string
		query    string
		expected Params
	}{
		{name: "defaults", query: "", expected: Params{Page: 1, Limit: 20}},
		{name: "explicit", query: "?page=3&limit=5", expected: Params{Page: 3, Limit: 5}},
		{name: "garbage", query: "?page=abc&limit=-4", expected: Params{Page: 1, Limit: 20}},
		{name: "capped", query: "?limit=1000", expected: Params{Page: 1, Limit: MaxLimit}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/Admin/AuditLog"+tc.query, nil)

			assert.Equal(t, tc.expected, Parse(c))
		})
	}
}

func TestMeta(t *testing.T) {
	assert.Equal(t, Meta{Page: 1, Limit: 20, Total: 0, TotalPages: 0}, Clamp(1, 20).Meta(0))
	assert.Equal(t, Meta{Page: 2, Limit: 20, Total: 41, TotalPages: 3}, Clamp(2, 20).Meta(41))
	assert.Equal(t, 1, Clamp(1, 20).Meta(20).TotalPages)
}
