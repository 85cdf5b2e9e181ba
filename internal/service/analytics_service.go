package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/repository/specification"
	"academic-auth-be/internal/repository/unitofwork"
	"academic-auth-be/pkg/provider"

	"github.com/google/uuid"
)

// RecordsAnalytics computes portal analytics from the institution queue.
type RecordsAnalytics struct {
	uowFactory unitofwork.RepositoryFactory
	now        func() time.Time
}

func NewRecordsAnalytics(uowFactory unitofwork.RepositoryFactory) *RecordsAnalytics {
	return &RecordsAnalytics{uowFactory: uowFactory, now: time.Now}
}

func (a *RecordsAnalytics) Analytics(ctx context.Context, institutionID string, r provider.Range) (provider.Analytics, error) {
	id, err := uuid.Parse(institutionID)
	if err != nil {
		return provider.Analytics{}, fmt.Errorf("institution id: %w", err)
	}
	since := a.now().Add(-r.Duration())
	repo := a.uowFactory.NewUnitOfWork(ctx).VerificationRepository()

	months, err := repo.MonthlyRequestCounts(ctx, id, since)
	if err != nil {
		return provider.Analytics{}, err
	}
	types, err := repo.RequestTypeCounts(ctx, id, since)
	if err != nil {
		return provider.Analytics{}, err
	}
	weeks, err := repo.AvgDecisionDays(ctx, id, since)
	if err != nil {
		return provider.Analytics{}, err
	}
	pending, err := repo.CountRequests(ctx,
		specification.ByInstitution{InstitutionID: id},
		specification.ByStatus{Status: string(entity.RequestPending)},
	)
	if err != nil {
		return provider.Analytics{}, err
	}
	inReview, err := repo.CountRequests(ctx,
		specification.ByInstitution{InstitutionID: id},
		specification.ByStatus{Status: string(entity.RequestInReview)},
	)
	if err != nil {
		return provider.Analytics{}, err
	}

	out := provider.Analytics{
		Range:          r,
		Verifications:  make([]provider.MonthlyVolume, 0, len(months)),
		ProcessingTime: make([]provider.ProcessingTime, 0, len(weeks)),
		DocumentTypes:  make([]provider.Share, 0, len(types)),
	}

	var approved, rejected, total int
	for _, m := range months {
		out.Verifications = append(out.Verifications, provider.MonthlyVolume{
			Name:     m.Month.Format("Jan"),
			Approved: m.Approved,
			Rejected: m.Rejected,
			Pending:  m.Pending,
		})
		approved += m.Approved
		rejected += m.Rejected
		total += m.Approved + m.Rejected + m.Pending
	}

	starts := make([]time.Time, 0, len(weeks))
	for w := range weeks {
		starts = append(starts, w)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	var daySum float64
	for i, w := range starts {
		out.ProcessingTime = append(out.ProcessingTime, provider.ProcessingTime{
			Name:    fmt.Sprintf("Week %d", i+1),
			AvgDays: round1(weeks[w]),
		})
		daySum += weeks[w]
	}

	for _, t := range types {
		out.DocumentTypes = append(out.DocumentTypes, provider.Share{Name: t.DocumentType, Value: t.Count})
	}

	out.Stats.TotalVerifications = total
	out.Stats.PendingRequests = int(pending + inReview)
	if len(starts) > 0 {
		out.Stats.AvgProcessingDays = round1(daySum / float64(len(starts)))
	}
	if decided := approved + rejected; decided > 0 {
		out.Stats.SuccessRate = round1(float64(approved) * 100 / float64(decided))
	}
	return out, nil
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
