package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/metrics"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/oauth"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.POST("/evaluate").
			To(handler.Evaluate).
			Doc("Moderate a message").
			Metadata(restfulspec.KeyOpenAPITags, []string{"moderation"}).
			Reads(models.ModerationRequest{}).
			Writes(models.ModerationVerdict{}).
			Returns(200, "OK", models.ModerationVerdict{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}))

	container.Add(ws)
}

// RegisterOAuthRoutes mounts the Slack installation callback.
func RegisterOAuthRoutes(container *restful.Container, handler *oauth.Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/slack/oauth").
		Produces("text/plain")

	ws.
		Route(ws.GET("/callback").
			To(handler.Callback).
			Doc("Slack OAuth v2 installation callback").
			Metadata(restfulspec.KeyOpenAPITags, []string{"slack"}).
			Param(ws.QueryParameter("code", "Temporary authorization code").DataType("string").Required(true)).
			Returns(200, "Installed", nil).
			Returns(400, "Missing code", nil).
			Returns(500, "OAuth exchange or storage failed", nil))

	container.Add(ws)
}

// RegisterOpenAPI serves the OpenAPI document for every web service registered so far.
func RegisterOpenAPI(container *restful.Container) {
	config := restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       "/api/v1/openapi.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}

	container.Add(restfulspec.NewOpenAPIService(config))
}

func RegisterMetrics(container *restful.Container) {
	container.Handle("/metrics", metrics.Handler())
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "kindfilter API",
			Description: "LLM backed message moderation gate",
			Version:     "1.0.0",
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "health", Description: "Health checks"}},
		{TagProps: spec.TagProps{Name: "moderation", Description: "Message moderation"}},
		{TagProps: spec.TagProps{Name: "slack", Description: "Slack installation"}},
	}
}

// NewContainer builds the container with the standard filters and routes.
// oauthHandler may be nil when OAuth is not configured.
func NewContainer(handler *Handler, oauthHandler *oauth.Handler) *restful.Container {
	container := restful.NewContainer()

	container.Filter(middleware.Logger)
	container.Filter(middleware.RecoverPanic)

	RegisterRoutes(container, handler)
	if oauthHandler != nil {
		RegisterOAuthRoutes(container, oauthHandler)
	}
	RegisterOpenAPI(container)
	RegisterMetrics(container)

	return container
}
