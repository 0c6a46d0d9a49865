// Package bot runs the polling engine: it pulls comments from a source,
// filters them by the invocation phrase, consults the reply ledger, and
// drives the extract -> fetch -> render -> reply pipeline for each hit.
package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/cagomez/forecastbot/internal/extract"
	"github.com/cagomez/forecastbot/internal/metrics"
	"github.com/cagomez/forecastbot/internal/models"
	"github.com/cagomez/forecastbot/internal/render"
	"github.com/cagomez/forecastbot/internal/store"
)

// CommentSource supplies comments and accepts replies. Satisfied by
// reddit.Client.
type CommentSource interface {
	Comments(ctx context.Context, subreddit string) ([]models.Comment, error)
	Reply(ctx context.Context, commentID, text string) error
}

// ForecastFetcher resolves a location to a forecast outcome. Satisfied by
// weather.Client.
type ForecastFetcher interface {
	Fetch(ctx context.Context, loc models.Location) (models.Outcome, error)
}

// Ledger is the durable set of comment ids already replied to. Satisfied by
// store.Store.
type Ledger interface {
	Contains(commentID string) (bool, error)
	Record(commentID string) error
}

// DefaultPollInterval is the sleep between streaming passes.
const DefaultPollInterval = 5 * time.Second

type Engine struct {
	source     CommentSource
	fetcher    ForecastFetcher
	ledger     Ledger
	subreddits []string
	interval   time.Duration
}

func NewEngine(source CommentSource, fetcher ForecastFetcher, ledger Ledger, subreddits []string, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if len(subreddits) == 0 {
		subreddits = []string{"all"}
	}
	return &Engine{
		source:     source,
		fetcher:    fetcher,
		ledger:     ledger,
		subreddits: subreddits,
		interval:   interval,
	}
}

// Run polls until ctx is cancelled. Nothing that happens to an individual
// comment ever stops the loop; per-comment faults are logged and the engine
// moves on.
func (e *Engine) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("engine: shutting down")
			return
		case <-timer.C:
		}

		e.runPass(ctx)
		timer.Reset(e.interval)
	}
}

// runPass streams one subreddit's recent comments in arrival order.
func (e *Engine) runPass(ctx context.Context) {
	subreddit := e.subreddits[rand.Intn(len(e.subreddits))]

	comments, err := e.source.Comments(ctx, subreddit)
	if err != nil {
		log.Printf("engine: fetch comments for r/%s: %v", subreddit, err)
		return
	}

	for _, comment := range comments {
		if ctx.Err() != nil {
			return
		}
		metrics.CommentsSeenTotal.Inc()
		if err := e.ProcessComment(ctx, comment); err != nil {
			log.Printf("engine: comment %s: %v", comment.ID, err)
		}
	}
}

// ProcessComment runs the reply pipeline for one comment. The returned error
// is informational only; callers log it and continue.
func (e *Engine) ProcessComment(ctx context.Context, comment models.Comment) error {
	if !extract.ContainsCall(comment.Body) {
		metrics.CommentsSkippedTotal.WithLabelValues("no_call").Inc()
		return nil
	}

	handled, err := e.ledger.Contains(comment.ID)
	if err != nil {
		metrics.PipelineErrorsTotal.WithLabelValues("ledger_check").Inc()
		return fmt.Errorf("ledger check: %w", err)
	}
	if handled {
		metrics.CommentsSkippedTotal.WithLabelValues("already_replied").Inc()
		log.Printf("engine: already replied to comment %s", comment.ID)
		return nil
	}

	log.Printf("engine: called by comment %s from %s", comment.ID, comment.Author)

	loc := extract.Location(comment.Body)
	days := extract.RequestedDays(comment.Body)

	var outcome models.Outcome
	if !loc.Resolved {
		// No point asking the provider about "invalid, invalid"; answer
		// with the same not-found apology a failed lookup would produce.
		outcome = models.Outcome{Kind: models.OutcomeNotFound}
	} else {
		outcome, err = e.fetcher.Fetch(ctx, loc)
		if err != nil {
			// Not recorded in the ledger: a later pass may retry this
			// comment if the source delivers it again.
			metrics.PipelineErrorsTotal.WithLabelValues("fetch").Inc()
			return fmt.Errorf("fetch forecast: %w", err)
		}
	}

	reply := render.Reply(loc, outcome, days)

	if err := e.source.Reply(ctx, comment.ID, reply); err != nil {
		metrics.PipelineErrorsTotal.WithLabelValues("reply").Inc()
		return fmt.Errorf("send reply: %w", err)
	}

	// A reply is now live. If the record below fails, a later pass can
	// answer this comment a second time; at-most-once is best effort
	// across that window.
	if err := e.ledger.Record(comment.ID); err != nil {
		metrics.PipelineErrorsTotal.WithLabelValues("ledger_record").Inc()
		if store.IsDuplicate(err) {
			return fmt.Errorf("comment %s was recorded concurrently after reply: %w", comment.ID, err)
		}
		return fmt.Errorf("REPLY SENT BUT NOT RECORDED, duplicate reply possible: %w", err)
	}

	metrics.RepliesPostedTotal.Inc()
	log.Printf("engine: replied to comment %s", comment.ID)
	return nil
}
