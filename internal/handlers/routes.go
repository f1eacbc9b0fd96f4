package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/smartduck/ducktodo/internal/middleware"
	"github.com/smartduck/ducktodo/internal/models"
	"github.com/smartduck/ducktodo/internal/services"
)

// Services bundles what the HTTP layer talks to.
type Services struct {
	Auth    *services.AuthService
	Members *services.MembershipService
	Teams   *services.TeamService
	Groups  *services.TaskGroupService
	Tasks   *services.TaskService
	Authz   *services.Authorizer
}

// RegisterRoutes mounts the API under /api. Session middleware must already
// be installed on r.
func RegisterRoutes(r gin.IRouter, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	teamHandler := NewTeamHandler(svc.Teams)
	groupHandler := NewGroupHandler(svc.Groups)
	taskHandler := NewTaskHandler(svc.Tasks)
	teamMembers := NewMembershipHandler(svc.Members, models.ScopeTeam)
	groupMembers := NewMembershipHandler(svc.Members, models.ScopeGroup)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.PUT("/me", middleware.RequireAuth(), authHandler.UpdateProfile)
			auth.PUT("/me/password", middleware.RequireAuth(), authHandler.ChangePassword)
		}

		teams := api.Group("/teams")
		teams.Use(middleware.RequireAuth())
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("", teamHandler.ListTeams)
			teams.PUT("/order", teamMembers.Reorder)
			teams.GET("/invites", teamMembers.ListInvitations)
			teams.GET("/:id", teamHandler.GetTeam)
			teams.PATCH("/:id", teamHandler.UpdateTeam)
			teams.DELETE("/:id", teamHandler.DeleteTeam)
			teams.POST("/:id/leave", teamHandler.LeaveTeam)
			teams.POST("/:id/accept", teamMembers.Accept)
			teams.POST("/:id/reject", teamMembers.Reject)
			teams.PUT("/:id/color", middleware.RequireMembership(svc.Authz, models.ScopeTeam, nil), teamMembers.UpdateColor)
			teams.GET("/:id/members", teamHandler.ListMembers)
			teams.POST("/:id/members/:user_id", teamMembers.Invite)
			teams.PATCH("/:id/members/:user_id", teamMembers.ChangeRole)
			teams.DELETE("/:id/members/:user_id", teamMembers.RemoveMember)
		}

		groups := api.Group("/groups")
		groups.Use(middleware.RequireAuth())
		{
			groups.POST("", groupHandler.CreateGroup)
			groups.GET("", groupHandler.ListGroups)
			groups.PUT("/order", groupMembers.Reorder)
			groups.GET("/invites", groupMembers.ListInvitations)
			groups.GET("/:id", groupHandler.GetGroup)
			groups.PATCH("/:id", groupHandler.UpdateGroup)
			groups.DELETE("/:id", groupHandler.DeleteGroup)
			groups.POST("/:id/accept", groupMembers.Accept)
			groups.POST("/:id/reject", groupMembers.Reject)
			groups.PUT("/:id/color", middleware.RequireMembership(svc.Authz, models.ScopeGroup, nil), groupMembers.UpdateColor)
			groups.GET("/:id/members", middleware.RequireMembership(svc.Authz, models.ScopeGroup, nil), groupMembers.ListMembers)
			groups.POST("/:id/members/:user_id", groupMembers.Invite)
			groups.PATCH("/:id/members/:user_id", groupMembers.ChangeRole)
			groups.DELETE("/:id/members/:user_id", groupMembers.RemoveMember)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", middleware.RequireTaskAccess(svc.Authz), taskHandler.GetTask)
			tasks.PATCH("/:id", middleware.RequireTaskAccess(svc.Authz), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(svc.Authz), taskHandler.DeleteTask)
			tasks.GET("/:id/audits", middleware.RequireTaskAccess(svc.Authz), taskHandler.ListAudits)
			tasks.POST("/:id/children", middleware.RequireTaskAccess(svc.Authz), taskHandler.AddChildTask)
			tasks.PUT("/:id/children/order", middleware.RequireTaskAccess(svc.Authz), taskHandler.ReorderChildTasks)
			tasks.POST("/:id/assistants/:user_id", middleware.RequireTaskAccess(svc.Authz), taskHandler.AddAssistant)
			tasks.DELETE("/:id/assistants/:user_id", middleware.RequireTaskAccess(svc.Authz), taskHandler.RemoveAssistant)
			tasks.POST("/:id/files", middleware.RequireTaskAccess(svc.Authz), taskHandler.AddFile)
			tasks.DELETE("/:id/files/:file_id", middleware.RequireTaskAccess(svc.Authz), taskHandler.RemoveFile)
		}

		children := api.Group("/child-tasks")
		children.Use(middleware.RequireAuth())
		{
			children.PATCH("/:id", taskHandler.UpdateChildTask)
			children.DELETE("/:id", taskHandler.DeleteChildTask)
		}

		graph := api.Group("/graph")
		graph.Use(middleware.RequireAuth())
		{
			graph.POST("/nodes", taskHandler.AddNode)
			graph.POST("/edges", taskHandler.AddEdge)
		}
	}
}
