package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/example/studytrack/internal/progress"
	"github.com/example/studytrack/internal/spaced_repetition"
	"github.com/example/studytrack/internal/study"
	"github.com/example/studytrack/pkg/models"
)

// TopicService is implemented by *study.Service
type TopicService interface {
	AddTopic(ctx context.Context, userID int64, nt study.NewTopic) (*models.Topic, error)
	GetTopic(ctx context.Context, userID, topicID int64) (*models.Topic, error)
	ListTopics(ctx context.Context, userID int64) ([]models.Topic, error)
	DueTopics(ctx context.Context, userID int64) ([]models.Topic, error)
	Review(ctx context.Context, userID, topicID int64) (*models.Topic, spaced_repetition.ReviewResult, error)
	SetIntervals(ctx context.Context, userID, topicID int64, raw string) (*models.Topic, error)
	Reactivate(ctx context.Context, userID, topicID int64) (*models.Topic, error)
	DeleteTopic(ctx context.Context, userID, topicID int64) error
	History(ctx context.Context, userID, topicID int64) ([]models.ReviewLog, error)
	Statistics(ctx context.Context, userID int64) ([]models.Statistics, error)
	TopicStatistics(ctx context.Context, userID, topicID int64) (*models.Statistics, error)
	Progress(ctx context.Context, userID int64) (progress.Summary, error)
}

type topicApi struct {
	svc TopicService
}

type (
	newTopicRequest struct {
		Title     string `json:"title" validate:"required,max=200"`
		Category  string `json:"category" validate:"max=100"`
		Intervals string `json:"custom_intervals" validate:"max=200"`
	}

	intervalsRequest struct {
		Intervals string `json:"custom_intervals" validate:"max=200"`
	}

	reviewResponse struct {
		Topic  *models.Topic                  `json:"topic"`
		Result spaced_repetition.ReviewResult `json:"result"`
	}
)

func registerTopicAPI(g *echo.Group, svc TopicService) {
	api := topicApi{svc: svc}

	tg := g.Group("/topics")
	tg.GET("", api.list)
	tg.POST("", api.create)
	tg.GET("/due", api.due)

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
	dg.POST("/review", api.review)
	dg.PUT("/intervals", api.setIntervals)
	dg.POST("/reactivate", api.reactivate)
	dg.GET("/history", api.history)
	dg.GET("/statistics", api.topicStatistics)

	g.GET("/statistics", api.statistics)
	g.GET("/progress", api.progress)
}

func topicID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, errBadTopicID
	}
	return id, nil
}

// Handlers

func (api *topicApi) list(ctx echo.Context) error {
	topics, err := api.svc.ListTopics(ctx.Request().Context(), contextUserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *topicApi) due(ctx echo.Context) error {
	topics, err := api.svc.DueTopics(ctx.Request().Context(), contextUserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *topicApi) create(ctx echo.Context) error {
	var data newTopicRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to newTopicRequest")
	}
	if err := ctx.Validate(&data); err != nil {
		return err
	}

	topic, err := api.svc.AddTopic(ctx.Request().Context(), contextUserID(ctx), study.NewTopic{
		Title:     data.Title,
		Category:  data.Category,
		Intervals: data.Intervals,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, topic)
}

func (api *topicApi) retrieve(ctx echo.Context) error {
	id, err := topicID(ctx)
	if err != nil {
		return err
	}
	topic, err := api.svc.GetTopic(ctx.Request().Context(), contextUserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, topic)
}

func (api *topicApi) destroy(ctx echo.Context) error {
	id, err := topicID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteTopic(ctx.Request().Context(), contextUserID(ctx), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *topicApi) review(ctx echo.Context) error {
	id, err := topicID(ctx)
	if err != nil {
		return err
	}
	topic, result, err := api.svc.Review(ctx.Request().Context(), contextUserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reviewResponse{Topic: topic, Result: result})
}

func (api *topicApi) setIntervals(ctx echo.Context) error {
	id, err := topicID(ctx)
	if err != nil {
		return err
	}
	var data intervalsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to intervalsRequest")
	}
	if err := ctx.Validate(&data); err != nil {
		return err
	}

	topic, err := api.svc.SetIntervals(ctx.Request().Context(), contextUserID(ctx), id, data.Intervals)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, topic)
}

func (api *topicApi) reactivate(ctx echo.Context) error {
	id, err := topicID(ctx)
	if err != nil {
		return err
	}
	topic, err := api.svc.Reactivate(ctx.Request().Context(), contextUserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, topic)
}

func (api *topicApi) history(ctx echo.Context) error {
	id, err := topicID(ctx)
	if err != nil {
		return err
	}
	logs, err := api.svc.History(ctx.Request().Context(), contextUserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *topicApi) topicStatistics(ctx echo.Context) error {
	id, err := topicID(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.TopicStatistics(ctx.Request().Context(), contextUserID(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *topicApi) statistics(ctx echo.Context) error {
	stats, err := api.svc.Statistics(ctx.Request().Context(), contextUserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *topicApi) progress(ctx echo.Context) error {
	summary, err := api.svc.Progress(ctx.Request().Context(), contextUserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, summary)
}
