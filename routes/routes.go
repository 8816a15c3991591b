package routes

import (
	"net/http"

	"capture/auth"
	"capture/events"
	"capture/middleware"
	"capture/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.POST("/api/auth/logout", auth.Logout)
}

func AddEventRoutes(router *httprouter.Router, api *events.API, rl *ratelim.RateLimiter) {
	router.POST("/api/events/event", middleware.Authenticate(api.CreateEvent))
	router.GET("/api/events/event/:eventid", middleware.OptionalAuth(api.GetEvent))
	router.PUT("/api/events/event/:eventid", middleware.Authenticate(api.EditEvent))
	router.POST("/api/events/event/:eventid/join", middleware.Authenticate(api.JoinEvent))
	router.POST("/api/events/event/:eventid/end", middleware.Authenticate(api.EndEvent))
	router.GET("/api/events/event/:eventid/qr", rl.Limit(api.EventQR))
	router.GET("/api/events/event/:eventid/card", rl.Limit(api.EventCard))
	router.GET("/api/events/hosted", middleware.Authenticate(api.GetHostedEvents))
	router.GET("/api/events/participating", middleware.Authenticate(api.GetParticipatingEvents))
	router.GET("/api/events/live", api.LiveEvents)
}

// AddStaticRoutes serves uploaded event images.
func AddStaticRoutes(router *httprouter.Router, dataDir string) {
	router.ServeFiles("/eventpic/*filepath", http.Dir(dataDir))
}
