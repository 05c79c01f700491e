package models

type DashboardStats struct {
	TotalComics        int64 `json:"total_comics"`
	TotalViews         int64 `json:"total_views"`
	TotalLikes         int64 `json:"total_likes"`
	TotalComments      int64 `json:"total_comments"`
	TotalEarnings      int64 `json:"total_earnings"`
	ActiveSubscription bool  `json:"active_subscription"`
	PublishQuota       int   `json:"publish_quota"`
	CurrentBalance     int64 `json:"current_balance"`
	CurrentCredits     int64 `json:"current_credits"`
}

type DailyStats struct {
	Date     string `json:"date"`
	Views    int64  `json:"views"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
}

type MonthlyStats struct {
	Month    string `json:"month"`
	Views    int64  `json:"views"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
	Earnings int64  `json:"earnings"`
}

type YearlyStats struct {
	Year          int   `json:"year"`
	TotalComics   int64 `json:"total_comics"`
	TotalViews    int64 `json:"total_views"`
	TotalLikes    int64 `json:"total_likes"`
	TotalComments int64 `json:"total_comments"`
	TotalEarnings int64 `json:"total_earnings"`
}

// ComicTotals is one aggregate row of views/likes/comments.
type ComicTotals struct {
	Comics   int64
	Views    int64
	Likes    int64
	Comments int64
}

type ProfileRating struct {
	Rating      *int    `json:"rating"`
	RatingName  *string `json:"rating_name"`
	TotalComics int64   `json:"total_comics"`
	TotalViews  int64   `json:"total_views"`
	TotalLikes  int64   `json:"total_likes"`
}

type ReferralInfo struct {
	ReferralCode     string `json:"referral_code"`
	TotalReferrals   int64  `json:"total_referrals"`
	TotalBonusEarned int64  `json:"total_bonus_earned"`
}
