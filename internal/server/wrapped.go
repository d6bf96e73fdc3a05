package server

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"

	"chess-wrapped/internal/service"
)

const (
	WrappedServicePath  = "/wrapped.v1.WrappedService/"
	GetWrappedProcedure = WrappedServicePath + "GetWrapped"
)

type GetWrappedRequest struct {
	Username string `json:"username"`
}

type reportGenerator interface {
	Generate(ctx context.Context, username string) (*service.Report, error)
}

type WrappedServer struct {
	reports reportGenerator
	logger  zerolog.Logger
}

func NewWrappedServer(wrappedSvc *service.WrappedService, logger zerolog.Logger) *WrappedServer {
	return &WrappedServer{reports: wrappedSvc, logger: logger}
}

// Handler returns the mount path and handler for the wrapped service.
func (s *WrappedServer) Handler() (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(GetWrappedProcedure, connect.NewUnaryHandler(
		GetWrappedProcedure,
		s.GetWrapped,
		connect.WithCodec(jsonCodec{}),
	))
	return WrappedServicePath, mux
}

func (s *WrappedServer) GetWrapped(ctx context.Context, req *connect.Request[GetWrappedRequest]) (*connect.Response[service.Report], error) {
	log := zerolog.Ctx(ctx)
	if log.GetLevel() == zerolog.Disabled {
		log = &s.logger
	}

	report, err := s.reports.Generate(ctx, req.Msg.Username)
	if errors.Is(err, service.ErrEmptyUsername) {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err != nil {
		log.Error().Err(err).Str("username", req.Msg.Username).Msg("failed to generate report")
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	log.Info().
		Str("username", report.Username).
		Int("games", report.TotalGames).
		Msg("report served")

	return connect.NewResponse(report), nil
}
