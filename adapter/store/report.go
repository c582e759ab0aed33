package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aerostats/insightserver"
)

type insertRunQuery struct {
	snapshot insightserver.ReportSnapshot
}

func (q insertRunQuery) SQL() (string, []any) {
	return `insert into comparison_run (id, started_at, created) values (?, ?, ?)`, []any{
		q.snapshot.ID.String(),
		q.snapshot.StartedAt,
		time.Now().UTC(),
	}
}

type insertQueryQuery struct {
	id    insightserver.QueryID
	runID insightserver.RunID
	query insightserver.QueryComparison
}

func (q insertQueryQuery) SQL() (string, []any) {
	return `insert into comparison_query (id, run_id, query, context_size) values (?, ?, ?, ?)`, []any{
		q.id.String(),
		q.runID.String(),
		q.query.Query,
		q.query.ContextSize,
	}
}

type insertModelResultQuery struct {
	queryID insightserver.QueryID
	result  insightserver.ModelResult
}

func (q insertModelResultQuery) SQL() (string, []any) {
	args := []any{
		q.queryID.String(),
		q.result.Model,
		q.result.Err,
	}

	if q.result.Response != nil {
		args = append(args,
			q.result.Response.Text,
			q.result.Response.Latency.Nanoseconds(),
			q.result.Response.WordCount,
			q.result.Response.CharCount,
			q.result.Response.TokensIn,
			q.result.Response.TokensOut,
			q.result.Response.FinishedAt,
		)
	} else {
		args = append(args, nil, nil, nil, nil, nil, nil, nil)
	}

	if q.result.Evaluation != nil {
		args = append(args,
			q.result.Evaluation.Relevance,
			q.result.Evaluation.Grounding,
			q.result.Evaluation.Completeness,
			q.result.Evaluation.Clarity,
			q.result.Evaluation.NoHallucination,
			q.result.Evaluation.Aggregate,
			q.result.Evaluation.Assessment,
		)
	} else {
		args = append(args, nil, nil, nil, nil, nil, nil, nil)
	}

	return `insert into model_result (
		query_id, model, error,
		text, latency_ns, word_count, char_count, tokens_in, tokens_out, finished_at,
		relevance, grounding, completeness, clarity, no_hallucination, aggregate, assessment
	) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args
}

type selectRunsQuery struct {
	params insightserver.SortParams
}

func (q selectRunsQuery) SQL() (string, []any) {
	return `select id, started_at from comparison_run` + q.params.SQL(), nil
}

type findRunQuery struct {
	id insightserver.RunID
}

func (q findRunQuery) SQL() (string, []any) {
	return `select id, started_at from comparison_run where id = ?`, []any{q.id.String()}
}

type selectQueriesQuery struct {
	runID insightserver.RunID
}

func (q selectQueriesQuery) SQL() (string, []any) {
	return `select id, query, context_size from comparison_query where run_id = ? order by rowid`, []any{q.runID.String()}
}

type selectModelResultsQuery struct {
	queryID string
}

func (q selectModelResultsQuery) SQL() (string, []any) {
	return `select model, error,
		text, latency_ns, word_count, char_count, tokens_in, tokens_out, finished_at,
		relevance, grounding, completeness, clarity, no_hallucination, aggregate, assessment
	from model_result where query_id = ?`, []any{q.queryID}
}

// SaveReport persists a finished comparison run with all of its per-query
// model results in a single transaction.
func (a *Adapter) SaveReport(ctx context.Context, snapshot insightserver.ReportSnapshot) error {
	return a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := execQuery(ctx, tx, insertRunQuery{snapshot: snapshot}); err != nil {
			return fmt.Errorf("insert run failed: %w", err)
		}

		for _, query := range snapshot.Queries {
			queryID := insightserver.NewQueryID()
			if err := execQuery(ctx, tx, insertQueryQuery{
				id:    queryID,
				runID: snapshot.ID,
				query: query,
			}); err != nil {
				return fmt.Errorf("insert query failed: %w", err)
			}

			for _, result := range query.Models {
				if err := execQuery(ctx, tx, insertModelResultQuery{
					queryID: queryID,
					result:  result,
				}); err != nil {
					return fmt.Errorf("insert model result failed: %w", err)
				}
			}
		}

		return nil
	})
}

// ListReports returns stored comparison runs, each fully populated and with
// its summary recomputed from the persisted results.
func (a *Adapter) ListReports(ctx context.Context, params insightserver.SortParams) ([]insightserver.ReportSnapshot, error) {
	var snapshots []insightserver.ReportSnapshot

	err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		sqlQuery, args := selectRunsQuery{params: params}.SQL()
		rows, err := tx.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			return fmt.Errorf("query context failed: %w", err)
		}
		defer rows.Close()

		type runRow struct {
			id        insightserver.RunID
			startedAt time.Time
		}
		var runs []runRow
		for rows.Next() {
			var (
				run   runRow
				rawID string
			)
			if err := rows.Scan(&rawID, &run.startedAt); err != nil {
				return fmt.Errorf("scan run failed: %w", err)
			}
			if run.id, err = parseRunID(rawID); err != nil {
				return err
			}
			runs = append(runs, run)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		for _, run := range runs {
			snapshot, err := a.loadSnapshot(ctx, tx, run.id, run.startedAt)
			if err != nil {
				return err
			}
			snapshots = append(snapshots, snapshot)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshots, nil
}

// FindReport loads a single comparison run by its ID. Returns ErrNotFound
// when no run with that ID was stored.
func (a *Adapter) FindReport(ctx context.Context, id insightserver.RunID) (insightserver.ReportSnapshot, error) {
	var snapshot insightserver.ReportSnapshot

	err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		sqlQuery, args := findRunQuery{id: id}.SQL()

		var (
			rawID     string
			startedAt time.Time
		)
		if err := tx.QueryRowContext(ctx, sqlQuery, args...).Scan(&rawID, &startedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: comparison run %s", insightserver.ErrNotFound, id)
			}
			return fmt.Errorf("query row failed: %w", err)
		}

		var err error
		snapshot, err = a.loadSnapshot(ctx, tx, id, startedAt)
		return err
	})
	if err != nil {
		return insightserver.ReportSnapshot{}, err
	}

	return snapshot, nil
}

func (a *Adapter) loadSnapshot(ctx context.Context, tx *sql.Tx, id insightserver.RunID, startedAt time.Time) (insightserver.ReportSnapshot, error) {
	snapshot := insightserver.ReportSnapshot{
		ID:        id,
		StartedAt: startedAt,
	}

	sqlQuery, args := selectQueriesQuery{runID: id}.SQL()
	rows, err := tx.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return insightserver.ReportSnapshot{}, fmt.Errorf("query context failed: %w", err)
	}
	defer rows.Close()

	type queryRow struct {
		id          string
		query       string
		contextSize int
	}
	var queryRows []queryRow
	for rows.Next() {
		var row queryRow
		if err := rows.Scan(&row.id, &row.query, &row.contextSize); err != nil {
			return insightserver.ReportSnapshot{}, fmt.Errorf("scan query failed: %w", err)
		}
		queryRows = append(queryRows, row)
	}
	if err := rows.Err(); err != nil {
		return insightserver.ReportSnapshot{}, fmt.Errorf("rows error: %w", err)
	}

	for _, row := range queryRows {
		results, err := a.loadModelResults(ctx, tx, row.id)
		if err != nil {
			return insightserver.ReportSnapshot{}, err
		}
		snapshot.Queries = append(snapshot.Queries, insightserver.QueryComparison{
			Query:       row.query,
			ContextSize: row.contextSize,
			Models:      results,
		})
	}

	snapshot.Summary = insightserver.ReportFromSnapshot(snapshot).Summary()

	return snapshot, nil
}

func (a *Adapter) loadModelResults(ctx context.Context, tx *sql.Tx, queryID string) (map[string]insightserver.ModelResult, error) {
	sqlQuery, args := selectModelResultsQuery{queryID: queryID}.SQL()
	rows, err := tx.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query context failed: %w", err)
	}
	defer rows.Close()

	results := make(map[string]insightserver.ModelResult)
	for rows.Next() {
		result, err := scanModelResult(rows)
		if err != nil {
			return nil, err
		}
		results[result.Model] = result
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return results, nil
}

func scanModelResult(row Scannable) (insightserver.ModelResult, error) {
	var (
		result          insightserver.ModelResult
		text            sql.NullString
		latencyNs       sql.NullInt64
		wordCount       sql.NullInt64
		charCount       sql.NullInt64
		tokensIn        sql.NullInt64
		tokensOut       sql.NullInt64
		finishedAt      sql.NullTime
		relevance       sql.NullFloat64
		grounding       sql.NullFloat64
		completeness    sql.NullFloat64
		clarity         sql.NullFloat64
		noHallucination sql.NullFloat64
		aggregate       sql.NullFloat64
		assessment      sql.NullString
	)

	if err := row.Scan(
		&result.Model, &result.Err,
		&text, &latencyNs, &wordCount, &charCount, &tokensIn, &tokensOut, &finishedAt,
		&relevance, &grounding, &completeness, &clarity, &noHallucination, &aggregate, &assessment,
	); err != nil {
		return insightserver.ModelResult{}, fmt.Errorf("scan model result failed: %w", err)
	}

	if text.Valid {
		result.Response = &insightserver.ModelResponse{
			Model:      result.Model,
			Text:       text.String,
			Latency:    time.Duration(latencyNs.Int64),
			WordCount:  int(wordCount.Int64),
			CharCount:  int(charCount.Int64),
			TokensIn:   int(tokensIn.Int64),
			TokensOut:  int(tokensOut.Int64),
			FinishedAt: finishedAt.Time,
		}
	}

	if assessment.Valid {
		result.Evaluation = &insightserver.EvaluationRecord{
			Relevance:       relevance.Float64,
			Grounding:       grounding.Float64,
			Completeness:    completeness.Float64,
			Clarity:         clarity.Float64,
			NoHallucination: noHallucination.Float64,
			Aggregate:       aggregate.Float64,
			Assessment:      assessment.String,
		}
	}

	return result, nil
}

func parseRunID(raw string) (insightserver.RunID, error) {
	id, err := insightserver.ParseRunID(raw)
	if err != nil {
		return insightserver.RunID{}, fmt.Errorf("parse run id failed: %w", err)
	}
	return id, nil
}
