package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every handler onto router's /v1 group, gated by
// RequireAuth/RequireScope, mirroring the teacher's setupRoutes grouping of
// static paths before parameterized ones.
func RegisterRoutes(router *gin.Engine, s *Server, auth Authenticator) {
	router.GET("/health", s.Health)

	v1 := router.Group("/v1")
	v1.Use(RequireAuth(auth))

	v1.POST("/projects/:project_id/suites", RequireScope(ScopeWrite), s.CreateSuite)
	v1.POST("/projects/:project_id/suites/yaml", RequireScope(ScopeWrite), s.UploadSuite)
	v1.GET("/projects/:project_id/suites", RequireScope(ScopeRead), s.ListSuites)
	v1.GET("/projects/:project_id/runs", RequireScope(ScopeRead), s.ListRuns)

	v1.GET("/suites/:suite_id", RequireScope(ScopeRead), s.GetSuite)
	v1.DELETE("/suites/:suite_id", RequireScope(ScopeWrite), s.DeleteSuite)
	v1.GET("/suites/:suite_id/cases", RequireScope(ScopeRead), s.ListCases)

	v1.POST("/suites/:suite_id/runs", RequireScope(ScopeExecute), s.CreateRun)
	v1.GET("/suites/:suite_id/runs", RequireScope(ScopeRead), s.ListRuns)
	v1.GET("/suites/:suite_id/stats/dashboard", RequireScope(ScopeRead), s.Dashboard)
	v1.GET("/suites/:suite_id/stats/weekly", RequireScope(ScopeRead), s.WeeklyVolume)

	v1.GET("/runs/:run_id", RequireScope(ScopeRead), s.GetRun)
	v1.POST("/runs/:run_id/cancel", RequireScope(ScopeExecute), s.CancelRun)

	v1.POST("/compare", RequireScope(ScopeRead), s.Compare)
}
