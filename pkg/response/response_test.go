package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOKPage_TotalPages(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		OKPage(c, []int{}, tt.total, 1, tt.pageSize)

		var resp struct {
			Data PageData `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("解析响应失败: %v", err)
		}
		if resp.Data.Pagination.TotalPages != tt.want {
			t.Errorf("total=%d pageSize=%d 期望 total_pages=%d，实际=%d",
				tt.total, tt.pageSize, tt.want, resp.Data.Pagination.TotalPages)
		}
	}
}

func TestErrorShortcuts(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *gin.Context)
		status int
	}{
		{"conflict", func(c *gin.Context) { Conflict(c, 40901, "冲突") }, http.StatusConflict},
		{"unprocessable", func(c *gin.Context) { Unprocessable(c, 42201, "无法处理") }, http.StatusUnprocessableEntity},
		{"unavailable", ServiceUnavailable, http.StatusServiceUnavailable},
		{"internal", InternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.call(c)
			if w.Code != tt.status {
				t.Errorf("期望 HTTP %d，实际 %d", tt.status, w.Code)
			}
		})
	}
}
