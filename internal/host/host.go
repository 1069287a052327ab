package host

// Host abstracts the game world the services run inside: who is online, how
// to talk to them, and how to hand out rewards. The production binary wires a
// console implementation; tests wire fakes.
type Host interface {
	// Broadcast sends a message to every online player.
	Broadcast(message string)

	// MessagePlayer sends a message to one player. Unknown or offline
	// players are ignored.
	MessagePlayer(username, message string)

	// KickPlayer disconnects the player with the given reason.
	KickPlayer(username, reason string)

	// GrantReward gives the player the quest reward.
	GrantReward(username string)

	// OnlinePlayers returns the usernames currently online.
	OnlinePlayers() []string

	// IsOnline reports whether the player is currently online.
	IsOnline(username string) bool
}
