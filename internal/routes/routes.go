package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"mamastoria/internal/authz"
	"mamastoria/internal/handlers"
	"mamastoria/internal/middleware"
)

type Handlers struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Verify        *handlers.VerifyHandler
	User          *handlers.UserHandler
	Master        *handlers.MasterHandler
	Comic         *handlers.ComicHandler
	Social        *handlers.SocialHandler
	Notification  *handlers.NotificationHandler
	Subscription  *handlers.SubscriptionHandler
	Analytics     *handlers.AnalyticsHandler
	Ledger        *handlers.LedgerHandler
	ComicRequest  *handlers.ComicRequestHandler
	Download      *handlers.DownloadHandler
	RateLimiter   *middleware.RateLimiter // nil = без ограничений
	IssueLimit    middleware.RateLimitRule
	LoginLimitMax int
}

func SetupRoutes(r *gin.Engine, h Handlers) *gin.Engine {
	r.GET("/", h.Health.Root)
	r.GET("/health", h.Health.Health)

	auth := middleware.AuthMiddleware()
	optional := middleware.OptionalAuth()
	limit := h.RateLimiter

	issueRule := h.IssueLimit
	withName := func(name string) middleware.RateLimitRule {
		rule := issueRule
		rule.Name = name
		return rule
	}
	loginRule := middleware.RateLimitRule{Name: "login", MaxRequests: h.LoginLimitMax, Window: 15 * time.Minute}
	if loginRule.MaxRequests <= 0 {
		loginRule.MaxRequests = 10
	}

	api := r.Group("/api/v1")

	// ---- auth (public)
	a := api.Group("/auth")
	{
		a.POST("/register", limit.Limit(withName("register")), h.Auth.Register)
		a.POST("/login", limit.Limit(loginRule), h.Auth.Login)
		a.POST("/verify", h.Auth.Verify)
		a.POST("/resend-verification", limit.Limit(withName("resend")), h.Auth.ResendVerification)
		a.POST("/refresh", h.Auth.RefreshToken)
		a.POST("/logout", auth, h.Auth.Logout)
		a.POST("/update-fcm-token", auth, h.Auth.UpdateFCMToken)
	}

	// ---- email OTP
	users := api.Group("/users")
	{
		users.POST("/send-otp", limit.Limit(withName("send-otp")), h.Verify.SendOTP)
		users.POST("/check-verification-code", h.Verify.CheckVerificationCode)
	}

	// ---- password
	pw := api.Group("/password")
	{
		pw.POST("/send-reset-token", limit.Limit(withName("send-reset-token")), h.Verify.SendResetToken)
		pw.POST("/verify-reset-token", h.Verify.VerifyResetToken)
		pw.POST("/reset-password", h.Verify.ResetPassword)
		pw.POST("/change-password", auth, h.User.ChangePassword)
	}

	// ---- profile
	profile := api.Group("/profile", auth)
	{
		profile.GET("", h.User.GetProfile)
		profile.POST("/update-details", h.User.UpdateDetails)
		profile.POST("/update-photo", h.User.UpdatePhoto)
		profile.POST("/update-kredit", h.User.UpdateKredit)
		profile.GET("/referral-code", h.User.ReferralCode)
		profile.GET("/rating", h.User.Rating)
		profile.POST("/update-watermark", h.User.UpdateWatermark)
		profile.GET("/update-quota", h.User.UpdateQuota)
	}
	api.GET("/referrals", auth, h.User.Referrals)

	// ---- commissions & withdrawals
	api.GET("/commissions", auth, h.Ledger.Commissions)
	api.POST("/commissions", auth, middleware.RequireRoles(authz.RoleAdmin), h.Ledger.AddCommission)
	api.GET("/withdrawals", auth, h.Ledger.Withdrawals)
	api.POST("/withdrawals", auth, h.Ledger.RequestWithdrawal)

	// ---- souvenir orders
	api.POST("/comic-requests", auth, h.ComicRequest.Create)
	api.GET("/comic-requests", auth, h.ComicRequest.List)

	// ---- downloads
	dl := api.Group("/download", auth)
	{
		dl.GET("/file", h.Download.File)
		dl.GET("/video", h.Download.Video)
	}

	// ---- master data
	master := api.Group("/master")
	{
		master.GET("/genres", h.Master.Genres)
		master.GET("/styles", h.Master.Styles)
		master.GET("/backgrounds", h.Master.Backgrounds)
	}

	// ---- comics
	comics := api.Group("/comics")
	{
		comics.GET("", h.Comic.List)
		comics.GET("/show/:id", optional, h.Comic.Show)
		comics.GET("/drafts", auth, h.Comic.Drafts)
		comics.GET("/last-read", auth, h.Comic.LastRead)
		comics.POST("/story-idea", auth, h.Comic.CreateStoryIdea)
		comics.PUT("/:id/summary", auth, h.Comic.UpdateSummary)
		comics.PUT("/:id/characters", auth, h.Comic.UpdateCharacter)
		comics.PUT("/:id/backgrounds", auth, h.Comic.UpdateBackgrounds)
		comics.POST("/:id/publish", auth, h.Comic.Publish)
		comics.POST("/:id/track-read", optional, h.Comic.TrackRead)
		comics.GET("/:id/similar", h.Comic.Similar)
		comics.DELETE("/:id", auth, h.Comic.Delete)
		comics.POST("/:id/generate-draft", auth, h.Comic.GenerateDraft)
		comics.GET("/:id/draft-status", auth, h.Comic.DraftStatus)

		comics.GET("/:id/comments", h.Social.ListComments)
		comics.POST("/:id/comments", auth, h.Social.CreateComment)

		comics.GET("/:id/likes", h.Social.ListLikes)
		comics.POST("/:id/likes", auth, h.Social.Like)
		comics.DELETE("/:id/likes", auth, h.Social.Unlike)
		comics.GET("/:id/likes/status", auth, h.Social.LikeStatus)
	}
	api.DELETE("/comments/:id", auth, h.Social.DeleteComment)

	// ---- notifications
	notif := api.Group("/notifications", auth)
	{
		notif.POST("", middleware.RequireRoles(authz.RoleAdmin), h.Notification.Create)
		notif.GET("", h.Notification.List)
		notif.GET("/unread-count", h.Notification.UnreadCount)
		notif.GET("/ws", h.Notification.Stream)
		notif.POST("/mark-as-read", h.Notification.MarkRead)
		notif.POST("/mark-all-as-read", h.Notification.MarkAllRead)
		notif.POST("/:id/mark-as-read", h.Notification.MarkOneRead)
		notif.DELETE("/:id", h.Notification.Delete)
	}

	// ---- subscriptions & payments
	subs := api.Group("/subscriptions")
	{
		subs.GET("/packages", h.Subscription.Packages)
		subs.POST("/packages", auth, middleware.RequireRoles(authz.RoleAdmin), h.Subscription.CreatePackage)
		subs.POST("/purchase", auth, h.Subscription.Purchase)
		subs.POST("/payment-callback", h.Subscription.PaymentCallback)
		subs.GET("/payment-history", auth, h.Subscription.PaymentHistory)
		subs.GET("/payment-history/:invoice/receipt", auth, h.Subscription.Receipt)
	}
	api.GET("/payment-methods", h.Subscription.PaymentMethods)
	api.GET("/mock-payment/:invoice", h.Subscription.MockPaymentPage)
	api.GET("/me/subscription", auth, h.Subscription.MySubscription)
	api.GET("/transactions/check-status", h.Subscription.CheckTransactionStatus)

	// ---- analytics
	an := api.Group("/analytics", auth)
	{
		an.GET("/dashboard", h.Analytics.Dashboard)
		an.GET("/daily", h.Analytics.Daily)
		an.GET("/monthly", h.Analytics.Monthly)
		an.GET("/yearly", h.Analytics.Yearly)
		an.GET("/history", h.Analytics.History)
	}

	return r
}
