package email

const (
	subjectBookingClaimedFmt     = "Claim Confirmed: %s (%s)"
	subjectDayOfReminderFmt      = "Day-Of Sponsorship Reminder: %s (%s)"
	subjectHourBeforeReminderFmt = "1-Hour Reminder: %s (%s)"
	subjectFollowupApplicant     = "Reminder: Your Sponsorship Approval is Active - Book Your Call"
	subjectFollowupAgentFmt      = "Action Needed: %s approved but not booked"
	subjectPolicyApprovedFmt     = "Policy Approved: %s - payout next week"
	subjectPolicyDeclinedFmt     = "Policy Declined: %s - next options"
)
