package blocks

// AddNotification prefixes message with a broadcast mention.
func AddNotification(message, notificationType string) string {
	switch notificationType {
	case "here":
		return "<!here> " + message
	case "channel":
		return "<!channel> " + message
	default:
		return message
	}
}
