package model

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	Reputation int    `json:"reputation"`
}
