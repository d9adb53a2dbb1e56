package delivery_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"feedrelay/internal/delivery"
	"feedrelay/internal/delivery/mocks"
	"feedrelay/internal/domain"
)

type OrchestratorTestSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	renderer *mocks.MockRenderer
	enqueuer *mocks.MockEnqueuer
	records  *mocks.MockRecordStore
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.renderer = mocks.NewMockRenderer(s.ctrl)
	s.enqueuer = mocks.NewMockEnqueuer(s.ctrl)
	s.records = mocks.NewMockRecordStore(s.ctrl)
}

func (s *OrchestratorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func (s *OrchestratorTestSuite) newOrchestrator(maxChars int) *delivery.Orchestrator {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return delivery.NewOrchestrator(s.renderer, s.enqueuer, s.records, maxChars, logger)
}

func testArticle() domain.Article {
	return domain.Article{
		domain.FieldID:     "article-1",
		domain.FieldIDHash: "hash-1",
		domain.FieldTitle:  "Title",
	}
}

func (s *OrchestratorTestSuite) TestDeliverSinglePart() {
	medium := domain.Medium{ID: "medium-1"}
	article := testArticle()

	s.renderer.EXPECT().Render(article, medium).Return("short body", nil)

	var inserted []domain.DeliveryRecord
	s.records.EXPECT().InsertBatch(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, records []domain.DeliveryRecord) error {
			inserted = records
			return nil
		},
	)
	s.enqueuer.EXPECT().Enqueue(s.ctx, delivery.Part{Content: "short body"}, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ delivery.Part, meta delivery.Metadata) error {
			s.Equal("feed-1", meta.FeedID)
			s.Equal("medium-1", meta.MediumID)
			s.Equal("hash-1", meta.ArticleIDHash)
			s.Nil(meta.ParentID)
			return nil
		},
	)

	records, err := s.newOrchestrator(2000).Deliver(s.ctx, "feed-1", article, medium)

	s.NoError(err)
	s.Require().Len(records, 1)
	s.Equal(inserted, records)
	s.Equal(domain.StatusPendingDelivery, records[0].Status)
	s.Equal(domain.ContentTypeArticleMessage, records[0].ContentType)
	s.Nil(records[0].ParentID)
	s.NotEmpty(records[0].ID)
}

func (s *OrchestratorTestSuite) TestDeliverLinksPartsToHead() {
	medium := domain.Medium{ID: "medium-1"}
	article := testArticle()

	s.renderer.EXPECT().Render(article, medium).Return("part one\npart two\npart three", nil)

	s.records.EXPECT().InsertBatch(s.ctx, gomock.Any()).Return(nil)

	var metas []delivery.Metadata
	s.enqueuer.EXPECT().Enqueue(s.ctx, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ delivery.Part, meta delivery.Metadata) error {
			metas = append(metas, meta)
			return nil
		},
	).Times(3)

	records, err := s.newOrchestrator(10).Deliver(s.ctx, "feed-1", article, medium)

	s.NoError(err)
	s.Require().Len(records, 3)

	// The head carries no parent; the tail parts all point at the head
	// under their own distinct ids.
	head := records[0]
	s.Nil(head.ParentID)
	for _, rec := range records[1:] {
		s.Require().NotNil(rec.ParentID)
		s.Equal(head.ID, *rec.ParentID)
		s.NotEqual(head.ID, rec.ID)
	}
	s.NotEqual(records[1].ID, records[2].ID)

	s.Require().Len(metas, 3)
	for i, meta := range metas {
		s.Equal(records[i].ID, meta.DeliveryID)
		s.Equal(records[i].ParentID, meta.ParentID)
	}
}

func (s *OrchestratorTestSuite) TestDeliverInsertsBeforeEnqueue() {
	medium := domain.Medium{ID: "medium-1"}
	article := testArticle()

	s.renderer.EXPECT().Render(article, medium).Return("body", nil)

	insert := s.records.EXPECT().InsertBatch(s.ctx, gomock.Any()).Return(nil)
	s.enqueuer.EXPECT().Enqueue(s.ctx, gomock.Any(), gomock.Any()).Return(nil).After(insert)

	_, err := s.newOrchestrator(2000).Deliver(s.ctx, "feed-1", article, medium)
	s.NoError(err)
}

func (s *OrchestratorTestSuite) TestDeliverRenderError() {
	medium := domain.Medium{ID: "medium-1"}
	article := testArticle()

	s.renderer.EXPECT().Render(article, medium).Return("", errors.New("template exploded"))

	records, err := s.newOrchestrator(2000).Deliver(s.ctx, "feed-1", article, medium)

	s.ErrorContains(err, "template exploded")
	s.Nil(records)
}

func (s *OrchestratorTestSuite) TestDeliverInsertError() {
	medium := domain.Medium{ID: "medium-1"}
	article := testArticle()

	s.renderer.EXPECT().Render(article, medium).Return("body", nil)
	s.records.EXPECT().InsertBatch(s.ctx, gomock.Any()).Return(errors.New("db down"))

	records, err := s.newOrchestrator(2000).Deliver(s.ctx, "feed-1", article, medium)

	s.ErrorContains(err, "db down")
	s.Nil(records)
}

func (s *OrchestratorTestSuite) TestDeliverEnqueueFailureFailsRecord() {
	medium := domain.Medium{ID: "medium-1"}
	article := testArticle()

	s.renderer.EXPECT().Render(article, medium).Return("part one\npart two", nil)
	s.records.EXPECT().InsertBatch(s.ctx, gomock.Any()).Return(nil)

	s.enqueuer.EXPECT().Enqueue(s.ctx, delivery.Part{Content: "part one"}, gomock.Any()).Return(nil)
	s.enqueuer.EXPECT().Enqueue(s.ctx, delivery.Part{Content: "part two"}, gomock.Any()).
		Return(errors.New("broker gone"))

	var failedID string
	s.records.EXPECT().UpdateStatusOnce(s.ctx, gomock.Any(), domain.StatusFailed, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id string, _ domain.DeliveryStatus, code *domain.DeliveryErrorCode, msg *string) (bool, error) {
			failedID = id
			s.Require().NotNil(code)
			s.Equal(domain.ErrorCodeInternal, *code)
			s.Require().NotNil(msg)
			s.Contains(*msg, "broker gone")
			return true, nil
		},
	)

	records, err := s.newOrchestrator(10).Deliver(s.ctx, "feed-1", article, medium)

	s.ErrorContains(err, "broker gone")
	// Records were already persisted; the caller gets them back so it
	// can account for the partial enqueue.
	s.Require().Len(records, 2)
	s.Equal(records[1].ID, failedID)
}

func (s *OrchestratorTestSuite) TestRecordGateRejection() {
	var inserted []domain.DeliveryRecord
	s.records.EXPECT().InsertBatch(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, records []domain.DeliveryRecord) error {
			inserted = records
			return nil
		},
	)

	err := s.newOrchestrator(2000).RecordGateRejection(s.ctx, "feed-1", "medium-1", "hash-1", domain.StatusFilteredOut)

	s.NoError(err)
	s.Require().Len(inserted, 1)
	s.Equal(domain.StatusFilteredOut, inserted[0].Status)
	s.Equal("feed-1", inserted[0].FeedID)
	s.Equal("medium-1", inserted[0].MediumID)
	s.Equal("hash-1", inserted[0].ArticleIDHash)
	s.Nil(inserted[0].ErrorCode)
}

func (s *OrchestratorTestSuite) TestRecordFailure() {
	var inserted []domain.DeliveryRecord
	s.records.EXPECT().InsertBatch(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, records []domain.DeliveryRecord) error {
			inserted = records
			return nil
		},
	)

	err := s.newOrchestrator(2000).RecordFailure(s.ctx, "feed-1", "medium-1", "hash-1", errors.New("limiter unavailable"))

	s.NoError(err)
	s.Require().Len(inserted, 1)
	s.Equal(domain.StatusFailed, inserted[0].Status)
	s.Require().NotNil(inserted[0].ErrorCode)
	s.Equal(domain.ErrorCodeInternal, *inserted[0].ErrorCode)
	s.Require().NotNil(inserted[0].InternalMessage)
	s.Equal("limiter unavailable", *inserted[0].InternalMessage)
}
