package handlers

import (
	"github.com/gofiber/fiber/v2"

	"devchallenge-api/middleware"
	"devchallenge-api/services"
)

// SetupChallengeRoutes wires the challenge and submission surface.
func SetupChallengeRoutes(app *fiber.App, challenges *services.ChallengeService, submissions *services.SubmissionService, matches *services.MatchService) {
	api := app.Group("/api")

	api.Get("/challenges", challenges.ListHandler)
	api.Get("/challenges/active", challenges.ActiveHandler)
	api.Get("/challenges/:id", challenges.GetHandler)
	api.Post("/challenges", middleware.RequireUser(), challenges.CreateHandler)
	api.Patch("/challenges/:id", middleware.RequireUser(), challenges.UpdateHandler)

	api.Get("/challenges/:id/submissions", submissions.ByChallengeHandler)
	api.Get("/challenges/:id/voting-pair", middleware.RequireUser(), matches.VotingPairHandler)

	api.Post("/submissions", middleware.RequireUser(), submissions.CreateHandler)
	api.Post("/submissions/upload", middleware.RequireUser(), submissions.UploadHandler)
}

// SetupVotingRoutes wires the vote ledger, quotas and the voting feed.
func SetupVotingRoutes(app *fiber.App, votes *services.VoteService, matches *services.MatchService, comments *services.CommentService) {
	api := app.Group("/api")

	api.Post("/votes", middleware.RequireUser(), votes.CastVoteHandler)
	api.Get("/votes/quota", middleware.RequireUser(), votes.QuotaHandler)
	api.Get("/voting/feed", middleware.RequireUser(), matches.VotingFeedHandler)

	api.Get("/submissions/:id/votes", votes.SubmissionVotesHandler)
	api.Get("/submissions/:id/comments", comments.ListHandler)
	api.Post("/submissions/:id/comments", middleware.RequireUser(), comments.CreateHandler)
	api.Post("/comments/:id/like", middleware.RequireUser(), comments.LikeHandler)
}

// SetupCommunityRoutes wires users, teams, guilds and leaderboards.
func SetupCommunityRoutes(app *fiber.App, users *services.UserService, submissions *services.SubmissionService, rating *services.RatingService, guilds *services.GuildService, teams *services.TeamService, leaderboard *services.LeaderboardService) {
	api := app.Group("/api")

	api.Get("/users/:id", users.GetHandler)
	api.Get("/users/:id/profile", users.ProfileHandler)
	api.Get("/users/:id/submissions", submissions.ByUserHandler)
	api.Get("/users/:id/matches", rating.UserMatchesHandler)
	api.Get("/users/:id/guild", guilds.ByUserHandler)
	api.Get("/users/:id/rank", leaderboard.UserRankHandler)

	api.Get("/teams/mine", middleware.RequireUser(), teams.MineHandler)
	api.Post("/teams", middleware.RequireUser(), teams.CreateHandler)
	api.Post("/teams/:id/members", middleware.RequireUser(), teams.AddMemberHandler)

	api.Get("/guilds/top", guilds.TopHandler)
	api.Post("/guilds", middleware.RequireUser(), guilds.CreateHandler)
	api.Post("/guilds/:id/join", middleware.RequireUser(), guilds.JoinHandler)

	api.Get("/leaderboard/:type", leaderboard.Handler)
}

// SetupSponsorRoutes wires sponsor accounts and sponsored challenges.
func SetupSponsorRoutes(app *fiber.App, sponsors *services.SponsorService) {
	api := app.Group("/api")

	api.Get("/sponsors", sponsors.ListHandler)
	api.Post("/sponsors", middleware.RequireUser(), sponsors.CreateHandler)
	api.Get("/sponsors/mine", middleware.RequireUser(), sponsors.MineHandler)
	api.Get("/sponsors/:id", sponsors.GetHandler)
	api.Put("/sponsors/:id", middleware.RequireUser(), sponsors.UpdateHandler)
	api.Patch("/sponsors/:id/verify", middleware.RequireUser(), sponsors.VerifyHandler)

	api.Get("/sponsored-challenges", sponsors.ListSponsoredHandler)
	api.Post("/sponsored-challenges", middleware.RequireUser(), sponsors.CreateSponsoredHandler)
	api.Get("/sponsored-challenges/:id", sponsors.GetSponsoredHandler)
	api.Put("/sponsored-challenges/:id", middleware.RequireUser(), sponsors.UpdateSponsoredHandler)
	api.Post("/sponsored-challenges/:id/winner", middleware.RequireUser(), sponsors.SelectWinnerHandler)
}
