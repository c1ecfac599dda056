package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dkamau/sahihi/core"
	"github.com/dkamau/sahihi/core/agreement"
	"github.com/dkamau/sahihi/core/document"
)

type signApi struct {
	svc        *document.Service
	validate   *validator.Validate
	translator ut.Translator
}

// registerSignAPI mounts the public signing flow. The routes are deliberately
// unauthenticated: possession of the opaque token is the whole access model,
// so they sit behind the rate limiter instead of an auth middleware.
func registerSignAPI(
	g *echo.Group,
	rateLimit echo.MiddlewareFunc,
	svc *document.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := signApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	sg := g.Group("/sign", rateLimit)
	sg.GET("/:token", api.retrieve)
	sg.POST("/:token", api.sign)
}

// Handlers

func (api *signApi) retrieve(ctx echo.Context) error {
	doc, err := api.svc.GetByToken(ctx.Param("token"))
	if err != nil {
		return errors.Wrap(err, "getting document")
	}
	return ctx.JSON(http.StatusOK, doc.SigningDocument())
}

func (api *signApi) sign(ctx echo.Context) error {
	var data agreement.SignRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignRequest")
	}
	data.TypedName = core.CleanString(data.TypedName)
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	doc, err := api.svc.Sign(ctx.Param("token"), data)
	if err != nil {
		return errors.Wrap(err, "signing document")
	}

	return ctx.JSON(http.StatusOK, SignResponse{
		Success:  true,
		SignedAt: doc.SignedAt.Time,
	})
}

type SignResponse struct {
	Success  bool      `json:"success"`
	SignedAt time.Time `json:"signed_at"`
}
