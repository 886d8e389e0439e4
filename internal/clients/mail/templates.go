package mail

import (
	"fmt"
	"time"
)

const signature = "\n\nRegards,\nAlumni Association"

func otpMessage(code string, ttl time.Duration) (string, string) {
	return "Your password reset code",
		fmt.Sprintf("Your one-time password reset code is %s.\n\nIt expires in %d minutes. "+
			"If you did not request a reset you can ignore this email.%s", code, int(ttl.Minutes()), signature)
}

func approvalMessage(name string) (string, string) {
	return "Your alumni account has been approved",
		fmt.Sprintf("Hello %s,\n\nAn administrator has approved your alumni account. "+
			"You can now log in to the portal and start mentoring students.%s", name, signature)
}

func rejectionMessage(name string) (string, string) {
	return "Your alumni registration",
		fmt.Sprintf("Hello %s,\n\nWe could not verify your alumni registration, so it has been declined. "+
			"Please contact the association office if you think this is a mistake.%s", name, signature)
}
