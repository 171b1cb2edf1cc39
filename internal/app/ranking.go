package app

import (
	"context"
	"sort"

	"live-quiz-service/internal/domain"
)

// RankingEntry is one row of the leaderboard.
type RankingEntry struct {
	Rank          int    `json:"rank"`
	ParticipantID int64  `json:"-"`
	Pseudo        string `json:"pseudo"`
	TotalScore    int    `json:"total_score"`
	IsMe          bool   `json:"is_me,omitempty"`
}

// MyResult places the requesting participant on the leaderboard.
type MyResult struct {
	Rank             int `json:"rank"`
	TotalScore       int `json:"total_score"`
	// PointsToNextRank is the gap to the entry directly above; 0 when first.
	PointsToNextRank int `json:"points_to_next_rank"`
}

// Ranking is the leaderboard of a session as seen by one caller.
type Ranking struct {
	Enabled bool           `json:"ranking_enabled"`
	Entries []RankingEntry `json:"ranking"`
	Me      *MyResult      `json:"my_result,omitempty"`
}

// rankStandings orders standings by score, then join time, then id, and
// assigns unique contiguous ranks. me may be zero for host views.
func rankStandings(standings []domain.Standing, me int64) Ranking {
	sorted := append([]domain.Standing(nil), standings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ParticipantID < b.ParticipantID
	})

	ranking := Ranking{Enabled: true, Entries: make([]RankingEntry, 0, len(sorted))}
	for i, st := range sorted {
		entry := RankingEntry{
			Rank:          i + 1,
			ParticipantID: st.ParticipantID,
			Pseudo:        st.Pseudo,
			TotalScore:    st.Score,
			IsMe:          me != 0 && st.ParticipantID == me,
		}
		ranking.Entries = append(ranking.Entries, entry)
		if entry.IsMe {
			gap := 0
			if i > 0 {
				gap = sorted[i-1].Score - st.Score
			}
			ranking.Me = &MyResult{Rank: entry.Rank, TotalScore: st.Score, PointsToNextRank: gap}
		}
	}
	return ranking
}

// Ranking returns the leaderboard of the caller's session.
func (s *Service) Ranking(ctx context.Context, token string) (Ranking, error) {
	participant, err := s.store.ParticipantByToken(ctx, token)
	if err != nil {
		return Ranking{}, err
	}
	session, err := s.store.GetSession(ctx, participant.SessionID)
	if err != nil {
		return Ranking{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return Ranking{}, err
	}
	return s.sessionRanking(ctx, session.ID, quiz.RankingEnabled, participant.ID)
}

func (s *Service) sessionRanking(ctx context.Context, sessionID int64, enabled bool, me int64) (Ranking, error) {
	if !enabled {
		return Ranking{Entries: []RankingEntry{}}, nil
	}
	standings, err := s.store.Standings(ctx, sessionID)
	if err != nil {
		return Ranking{}, err
	}
	return rankStandings(standings, me), nil
}
