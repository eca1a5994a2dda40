package internal

import (
	"net/http"

	"cinnarito/internal/controllers"
	"cinnarito/internal/models"
	"cinnarito/internal/providers"
)

func InitRoutes(api *controllers.ApiController, growth *controllers.GrowthController, chronicle *controllers.ChronicleController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.GetTree("/api/init", http.HandlerFunc(api.Init))
	for _, action := range models.ActionTypes {
		routers.Post("/api/"+string(action), api.Action(action))
	}
	routers.Post("/api/collect", http.HandlerFunc(api.Collect))
	routers.GetTree("/api/state", http.HandlerFunc(api.GetState))
	routers.GetTree("/api/player", http.HandlerFunc(api.GetPlayer))
	routers.GetTree("/api/actions", http.HandlerFunc(api.GetActions))

	routers.PostTree("/api/growth/calculate", http.HandlerFunc(growth.Calculate))
	routers.GetTree("/api/growth/history", http.HandlerFunc(growth.History))
	routers.GetTree("/api/growth/daily", http.HandlerFunc(growth.Daily))
	routers.PostTree("/api/upvotes", http.HandlerFunc(growth.Upvotes))

	routers.PostTree("/api/chronicle/generate", http.HandlerFunc(chronicle.Generate))
	routers.GetTree("/api/chronicle/schedules", http.HandlerFunc(chronicle.Schedules))
	routers.PostTree("/api/chronicle/schedules", http.HandlerFunc(chronicle.UpdateSchedule))
	return routers
}
