package enums

type NotificationType string

const (
	NotificationTournamentJoined    NotificationType = "TOURNAMENT_JOINED"
	NotificationTournamentStarted   NotificationType = "TOURNAMENT_STARTED"
	NotificationTournamentCompleted NotificationType = "TOURNAMENT_COMPLETED"
	NotificationMatchScheduled      NotificationType = "MATCH_SCHEDULED"
	NotificationMatchStarted        NotificationType = "MATCH_STARTED"
	NotificationMatchCompleted      NotificationType = "MATCH_COMPLETED"
	NotificationRankChanged         NotificationType = "RANK_CHANGED"
	NotificationFollowNew           NotificationType = "FOLLOW_NEW"
	NotificationAchievementUnlocked NotificationType = "ACHIEVEMENT_UNLOCKED"
	NotificationSystemAnnouncement  NotificationType = "SYSTEM_ANNOUNCEMENT"
)

type FeedEventType string

const (
	FeedUserFollowed      FeedEventType = "USER_FOLLOWED"
	FeedTournamentCreated FeedEventType = "TOURNAMENT_CREATED"
	FeedTournamentJoined  FeedEventType = "TOURNAMENT_JOINED"
	FeedTournamentWon     FeedEventType = "TOURNAMENT_WON"
	FeedMatchCompleted    FeedEventType = "MATCH_COMPLETED"
	FeedMatchWon          FeedEventType = "MATCH_WON"
	FeedLevelUp           FeedEventType = "LEVEL_UP"
	FeedRankChanged       FeedEventType = "RANK_CHANGED"
	FeedAchievement       FeedEventType = "ACHIEVEMENT"
)
