package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"GroupHub/internal/model"
	"GroupHub/internal/pkg"
	"GroupHub/internal/repository/mysql"
	"GroupHub/internal/repository/redis"
	"GroupHub/internal/router"
	"GroupHub/internal/service"

	"go.uber.org/zap"
)

func main() {
	log := pkg.InitLogger(os.Getenv("GROUPHUB_DEBUG") != "")
	defer log.Sync()

	if secret := os.Getenv("GROUPHUB_JWT_SECRET"); secret != "" {
		pkg.AccessSecret = []byte(secret)
	}
	if secret := os.Getenv("GROUPHUB_JWT_REFRESH_SECRET"); secret != "" {
		pkg.RefreshSecret = []byte(secret)
	}

	dsn := envOr("GROUPHUB_MYSQL_DSN", "user:password@tcp(127.0.0.1:3306)/grouphub?charset=utf8mb4&parseTime=True")
	if err := mysql.InitDB(dsn); err != nil {
		log.Fatal("mysql init failed", zap.Error(err))
	}

	if err := redis.Init(envOr("GROUPHUB_REDIS_ADDR", "127.0.0.1:6379"), os.Getenv("GROUPHUB_REDIS_PASSWORD"), 0); err != nil {
		log.Fatal("redis init failed", zap.Error(err))
	}
	defer redis.Close()

	// 自动建表（开发阶段 OK）
	if err := mysql.DB.AutoMigrate(
		&model.User{},
		&model.Group{},
		&model.GroupMember{},
		&model.MemberOutbox{},
	); err != nil {
		log.Fatal("auto migrate failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 没配 Kafka broker 时退化为日志 sender
	sender := service.LogSender
	if brokers := os.Getenv("GROUPHUB_KAFKA_BROKERS"); brokers != "" {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   envOr("GROUPHUB_KAFKA_TOPIC", "grouphub.membership"),
		})
		if err != nil {
			log.Fatal("kafka init failed", zap.Error(err))
		}
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}

	go service.NewOutboxRelayer(mysql.DB, sender).Run(ctx)
	go service.NewMemberCountReconciler(mysql.DB).Run(ctx)

	var mailCfg *pkg.SMTPConfig
	if host := os.Getenv("GROUPHUB_SMTP_HOST"); host != "" {
		mailCfg = &pkg.SMTPConfig{
			Host:     host,
			Port:     587,
			Username: os.Getenv("GROUPHUB_SMTP_USER"),
			Password: os.Getenv("GROUPHUB_SMTP_PASSWORD"),
			From:     envOr("GROUPHUB_SMTP_FROM", "GroupHub <no-reply@grouphub.dev>"),
		}
	}

	r := router.InitRouter(mailCfg)
	if err := r.Run(envOr("GROUPHUB_ADDR", ":8080")); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
