package middleware

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// engine mounts mw in front of GET/POST /api/v1/sessions and a panicking
// /boom route.
func engine(mw ...gin.HandlerFunc) *gin.Engine {
	e := gin.New()
	e.Use(mw...)
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	e.GET("/api/v1/sessions", ok)
	e.POST("/api/v1/sessions", ok)
	e.GET("/api/v1/sessions/:id", ok)
	e.GET("/healthz", ok)
	e.GET("/boom", func(*gin.Context) { panic("kaboom") })
	e.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	e.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	return e
}

func do(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

//Personal.AI order the ending
