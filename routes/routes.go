package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"retentionflow-backend/config"
	"retentionflow-backend/controllers"
	"retentionflow-backend/services"
	"retentionflow-backend/utils"
)

// Dependencies are the wired services the router exposes.
type Dependencies struct {
	Config       *config.Config
	Clients      *services.ClientService
	Rules        *services.RuleService
	Followups    *services.FollowupService
	Analytics    *services.AnalyticsService
	Teams        *services.TeamService
	Personalizer *services.Personalizer
	Gatherer     prometheus.Gatherer
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	loc := cfg.Location()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(config.RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	authController := controllers.NewAuthController(deps.Teams)
	schedulerController := controllers.NewSchedulerController(deps.Followups, cfg.SchedulerToken, loc)
	personaliseController := controllers.NewPersonaliseController(deps.Personalizer)
	clientController := controllers.NewClientController(deps.Clients, deps.Followups, cfg.DueSoonDays, loc)
	followupController := controllers.NewFollowupController(deps.Followups)
	ruleController := controllers.NewServiceRuleController(deps.Rules)
	reportController := controllers.NewReportController(deps.Analytics, loc)
	dashboardController := controllers.NewDashboardController(deps.Clients, deps.Followups, cfg.DueSoonDays, loc)
	teamController := controllers.NewTeamController(deps.Teams)

	r.GET("/api/scheduler/run", schedulerController.RunCycle)
	r.POST("/api/ai/personalise", personaliseController.Personalise)

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(cfg.JWTSecret), authController.LoadProfile())
	{
		api.GET("/me", authController.Me)

		// Client routes
		clients := api.Group("/clients")
		{
			clients.POST("", clientController.CreateClient)
			clients.GET("", clientController.GetClients)
			clients.GET("/due", clientController.GetDueClients)
			clients.GET("/:id", clientController.GetClient)
			clients.PUT("/:id", clientController.UpdateClient)
			clients.DELETE("/:id", clientController.DeleteClient)
			clients.POST("/:id/send", clientController.SendReminder)
		}

		api.GET("/followups", followupController.GetFollowups)

		// Service rule routes
		rules := api.Group("/service-rules")
		{
			rules.GET("", ruleController.GetServiceRules)
			rules.POST("", ruleController.CreateServiceRule)
			rules.PUT("/:serviceType", ruleController.UpdateServiceRule)
			rules.DELETE("/:serviceType", ruleController.DeleteServiceRule)
		}

		api.GET("/reports", reportController.GetReportAnalytics)
		api.GET("/dashboard", dashboardController.GetDashboardOverview)

		team := api.Group("/team")
		{
			team.GET("", teamController.GetTeam)
			team.POST("", teamController.CreateTeam)
			team.GET("/members", teamController.GetMembers)
			team.DELETE("/members/:id", teamController.RemoveMember)
			team.GET("/invitations", teamController.GetInvitations)
			team.POST("/invitations", teamController.CreateInvitation)
			team.POST("/invitations/:id/accept", teamController.AcceptInvitation)
		}
	}

	return r
}
