package telegram

import (
	"fmt"

	"github.com/tgchan/tgchan/internal/service"
)

const (
	introText = "Hello there! I am TG-Chan Posting Bot. I can help you post anonymous messages to TG-Chan.\n\n" +
		"To get started, just send me a message to post on TG-Chan, to reply to an existing post, " +
		"you can just click on the reply button on that post and send me a reply message.\n\n" +
		"You can view the privacy policy using the /privacy command."

	privacyText = "Privacy Policy:\n\n" +
		"1. Your messages are posted anonymously and are linked to your hash.\n" +
		"2. Your user id is not stored or used for any purpose other than generating your hash.\n" +
		"3. Your messages are not used for any other purpose than posting on TG-Chan.\n" +
		"4. Your messages are not used to track you or your activities on the bot.\n" +
		"5. Your hashes are generated in real-time for authentication and stored only for feedbacks.\n"

	promptText       = "When you're ready, just click on the button down below to post your message to TG-Chan!"
	replyingToText   = "\n\nCurrently replying to the following message: %s"
	postedText       = "Your message (%s) has been successfully posted!\n\nTo delete your post, use the /delete %d %d command."
	invalidSyntax    = "Invalid syntax!"
	invalidCommand   = "Invalid command!"
	invalidMediaKey  = "Invalid media key! Please try again with a valid media key."
	internalError    = "Something went wrong! Please try again later."
	mediaCaption     = "Here is the %s you requested."
	mediaPurgeNotice = " It will be deleted in %d seconds."
)

var rejectText = map[service.RejectReason]string{
	service.InvalidPost:         "Invalid message!",
	service.Unauthorized:        "You are not authorized to delete this message! Please try again with a valid message id.",
	service.TooSoon:             "Please wait for a while before posting another message!",
	service.MediaTooLarge:       "The attachment is too large! Please try again with a smaller/compressed file or add a link to it instead.",
	service.ReplyTargetExpiring: "Reply message is in the auto-delete queue! Please try again with a different message.",
	service.InvalidAction:       "Invalid action!",
	service.InvalidContent:      "Invalid message type! Please try again with a valid message type.",
	service.NotReplying:         "You are not in reply mode!",
}

var confirmText = map[service.Action]string{
	service.Deleted:   "The message has been successfully deleted!",
	service.Voted:     "Thanks for the feedback!",
	service.Retracted: "Feedback removed!",
	service.Replying:  "Reply mode activated! Please send your reply message via bot. You can exit reply mode by sending /cancel.",
	service.Cancelled: "Reply mode deactivated!",
}

func rejectMessage(r service.RejectReason) string {
	if s, ok := rejectText[r]; ok {
		return s
	}

	return fmt.Sprintf("Rejected: %s", r)
}
