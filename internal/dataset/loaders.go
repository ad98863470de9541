package dataset

import (
	"fmt"
	"time"

	"github.com/Clark-Hu/rating-rank/internal/scoring"
)

// CourseReview is one row of a course review export.
type CourseReview struct {
	Rating    float64
	Timestamp time.Time
	Progress  *float64
}

// Record converts the review for the segment scorers.
func (c CourseReview) Record() scoring.RatingRecord {
	return scoring.RatingRecord{Value: c.Rating, Timestamp: c.Timestamp, Progress: c.Progress}
}

// CourseReviews parses Rating, Timestamp and optional Progress columns.
func CourseReviews(rows []Row) ([]CourseReview, error) {
	out := make([]CourseReview, 0, len(rows))
	for _, row := range rows {
		rating, err := row.Float("rating")
		if err != nil {
			return nil, err
		}
		ts, err := row.Time("timestamp")
		if err != nil {
			return nil, err
		}
		progress, err := row.OptionalFloat("progress")
		if err != nil {
			return nil, err
		}
		out = append(out, CourseReview{Rating: rating, Timestamp: ts, Progress: progress})
	}
	return out, nil
}

// CourseRecords converts reviews for scoring.CourseWeightedRating.
func CourseRecords(reviews []CourseReview) []scoring.RatingRecord {
	out := make([]scoring.RatingRecord, len(reviews))
	for i, r := range reviews {
		out[i] = r.Record()
	}
	return out
}

// Product is one row of a product sorting export.
type Product struct {
	Name          string
	Rating        float64
	PurchaseCount int64
	CommentCount  int64
	// Histogram holds the 1..5 point counts, lowest first. Nil when the
	// export has no point columns.
	Histogram scoring.Histogram
}

var pointColumns = []string{"1_point", "2_point", "3_point", "4_point", "5_point"}

// Products parses name, rating, purchase_count, comment_count and the
// optional 1_point..5_point columns. The point columns are reordered lowest
// first whatever their order in the file.
func Products(rows []Row) ([]Product, error) {
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		p := Product{Name: row.Get("course_name", "name", "title", "index")}
		var err error
		if p.Rating, err = row.Float("rating"); err != nil {
			return nil, err
		}
		if p.PurchaseCount, err = row.Int("purchase_count"); err != nil {
			return nil, err
		}
		// The original export misspells the column as "commment_count".
		if p.CommentCount, err = row.Int("comment_count", "commment_count"); err != nil {
			return nil, err
		}
		if row.Has(pointColumns...) {
			if p.Histogram, err = histogram(row, pointColumns); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// MovieMeta is one row of a movie metadata export.
type MovieMeta struct {
	Title       string
	VoteAverage float64
	VoteCount   int64
}

// MovieMetadata parses title, vote_average and vote_count. Rows whose vote
// columns are blank or malformed are skipped and counted, as such exports
// routinely contain broken lines.
func MovieMetadata(rows []Row) ([]MovieMeta, int, error) {
	out := make([]MovieMeta, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		avg, err := row.Float("vote_average")
		if err != nil {
			skipped++
			continue
		}
		count, err := row.Int("vote_count")
		if err != nil {
			skipped++
			continue
		}
		out = append(out, MovieMeta{Title: row.Get("title", "original_title"), VoteAverage: avg, VoteCount: count})
	}
	return out, skipped, nil
}

// HistogramRow is a titled ten-level rating histogram.
type HistogramRow struct {
	Title     string
	Histogram scoring.Histogram
}

var tenLevelColumns = []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

// Histograms parses the one..ten columns of a rating distribution export.
func Histograms(rows []Row) ([]HistogramRow, error) {
	out := make([]HistogramRow, 0, len(rows))
	for _, row := range rows {
		h, err := histogram(row, tenLevelColumns)
		if err != nil {
			return nil, err
		}
		title := row.Get("title", "movie", "name", "index")
		if title == "" {
			title = fmt.Sprintf("row %d", row.Line-1)
		}
		out = append(out, HistogramRow{Title: title, Histogram: h})
	}
	return out, nil
}

// VoteRow is an item with up and down votes.
type VoteRow struct {
	ID    string
	Votes scoring.Votes
}

// Votes parses up and down columns with an optional id column.
func Votes(rows []Row) ([]VoteRow, error) {
	out := make([]VoteRow, 0, len(rows))
	for i, row := range rows {
		up, err := row.Int("up")
		if err != nil {
			return nil, err
		}
		down, err := row.Int("down")
		if err != nil {
			return nil, err
		}
		id := row.Get("id", "comment", "index")
		if id == "" {
			id = fmt.Sprint(i)
		}
		out = append(out, VoteRow{ID: id, Votes: scoring.Votes{Up: up, Down: down}})
	}
	return out, nil
}

func histogram(row Row, columns []string) (scoring.Histogram, error) {
	h := make(scoring.Histogram, len(columns))
	for i, c := range columns {
		v, err := row.Int(c)
		if err != nil {
			return nil, err
		}
		h[i] = v
	}
	return h, nil
}
