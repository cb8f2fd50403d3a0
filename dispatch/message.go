package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/mindfuel/dispatch/delivery"
	"github.com/mindfuel/dispatch/models"
)

const (
	quoteSubject         = "Your Daily MindFuel Quote"
	summarySubjectFormat = "MindFuel Daily Summary Report — %s"
)

// buildQuoteMessage renders the personalized quote email for one subscriber.
func buildQuoteMessage(sub models.Subscriber, quote models.Quote) delivery.Message {
	greeting := "Hello,"
	if name := strings.TrimSpace(sub.Name); name != "" {
		greeting = fmt.Sprintf("Hi %s,", name)
	}

	body := fmt.Sprintf(`%s

Here is your quote for today:

"%s"

— %s

Have a great day!
MindFuel Team
`, greeting, quote.Text, quote.Author)

	return delivery.Message{
		To:      sub.Email,
		Subject: quoteSubject,
		Body:    body,
	}
}

// buildSummaryMessage renders the operator-facing daily delivery report.
func buildSummaryMessage(operator string, report *models.SummaryReport, now time.Time) delivery.Message {
	day := report.Date.Format("2006-01-02")

	action := "All emails were delivered successfully today."
	if report.Failed > 0 {
		action = "Action Recommended: Please review the failed entries in the delivery log for troubleshooting."
	}

	body := fmt.Sprintf(`===================================
MindFuel Daily Delivery Report
===================================

Date: %s

Summary:
    Total Emails Attempted : %d
    Successfully Delivered : %d
    Failed Deliveries      : %d
    Success Rate           : %.2f%%

Report Time: %s

%s

Kind Regards,
MindFuel Automation System
`, day, report.Total, report.Sent, report.Failed, report.SuccessRate*100, now.Format("2006-01-02 15:04:05"), action)

	return delivery.Message{
		To:      operator,
		Subject: fmt.Sprintf(summarySubjectFormat, day),
		Body:    body,
	}
}
