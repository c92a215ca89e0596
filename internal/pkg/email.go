package pkg

import (
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string // 发件人邮箱
	Password string // 授权码/密码
	From     string // 显示的发件人，可与 Username 相同
}

func SendEmail(cfg SMTPConfig, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	return d.DialAndSend(m)
}

// MembershipDecisionHTML 入组审批结果通知正文
func MembershipDecisionHTML(groupName string, approved bool) string {
	if approved {
		return fmt.Sprintf(`<p>您好，</p><p>您加入小组 <b>%s</b> 的申请已通过，现在可以参与小组活动了。</p>`, groupName)
	}
	return fmt.Sprintf(`<p>您好，</p><p>很抱歉，您加入小组 <b>%s</b> 的申请未获通过。</p>`, groupName)
}
