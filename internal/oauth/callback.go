package oauth

import (
	"context"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/credentials"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

const (
	msgMissingCode   = "Missing code"
	msgStorageFailed = "Token storage failed"
	msgOAuthFailed   = "Slack OAuth failed"
	msgInstalled     = "✅ Slack installation successful! You can now use the app."
)

// Exchanger trades an authorization code for an installation.
type Exchanger func(ctx context.Context, code string) (*slack.OAuthV2Response, error)

// NewSlackExchanger calls oauth.v2.access with the app's client credentials.
func NewSlackExchanger(httpClient *http.Client, clientID, clientSecret, redirectURI string) Exchanger {
	return func(ctx context.Context, code string) (*slack.OAuthV2Response, error) {
		return slack.GetOAuthV2ResponseContext(ctx, httpClient, clientID, clientSecret, code, redirectURI)
	}
}

type Handler struct {
	exchange      Exchanger
	store         credentials.Store
	signingSecret string
	logger        *zerolog.Logger
}

func NewHandler(exchange Exchanger, store credentials.Store, signingSecret string, logger *zerolog.Logger) *Handler {
	return &Handler{
		exchange:      exchange,
		store:         store,
		signingSecret: signingSecret,
		logger:        logger,
	}
}

// GET /slack/oauth/callback?code=...
func (h *Handler) Callback(req *restful.Request, resp *restful.Response) {
	code := req.QueryParameter("code")
	if code == "" {
		writeText(resp, http.StatusBadRequest, msgMissingCode)
		return
	}

	ctx := req.Request.Context()

	install, err := h.exchange(ctx, code)
	if err != nil {
		h.logger.Error().Err(err).Msg("Slack OAuth exchange failed")
		writeText(resp, http.StatusInternalServerError, msgOAuthFailed)
		return
	}

	creds := credentials.Credentials{
		UserID:             install.AuthedUser.ID,
		TeamID:             install.Team.ID,
		SlackBotToken:      install.AccessToken,
		SlackSigningSecret: h.signingSecret,
	}

	if err := h.store.Save(ctx, creds); err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", creds.UserID).
			Str("team_id", creds.TeamID).
			Msg("failed to store installation tokens")
		writeText(resp, http.StatusInternalServerError, msgStorageFailed)
		return
	}

	h.logger.Info().
		Str("user_id", creds.UserID).
		Str("team_id", creds.TeamID).
		Msg("Slack installation stored")

	writeText(resp, http.StatusOK, msgInstalled)
}

func writeText(resp *restful.Response, status int, text string) {
	resp.Header().Set("Content-Type", "text/plain; charset=utf-8")
	resp.WriteHeader(status)
	_, _ = resp.Write([]byte(text))
}
