// Copyright 2026 PolicyNav Authors
// Licensed under the MIT License.

/*
Package main 提供 Policy Navigator 服务端程序入口。

# 概述

cmd/policynav 是 Policy Navigator 的可执行入口，提供 HTTP API 服务、
语料索引构建、数据库迁移、健康检查和版本查询等子命令。程序支持 YAML
配置文件加载、结构化日志（zap）、Prometheus 指标采集与 OpenTelemetry
链路追踪。

# 核心类型

  - Server           — 主服务器，管理 HTTP、Metrics 双端口及优雅关闭
  - Middleware       — HTTP 中间件函数签名 func(http.Handler) http.Handler
  - responseWriter   — 包装 http.ResponseWriter 以捕获状态码

# 主要能力

  - 子命令：serve（启动服务）、index（构建向量索引）、migrate（数据库迁移）、
    version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    MetricsMiddleware（:id 路径归一）、OTelTracing、CORS、
    RateLimiter（基于 IP）、APIKeyAuth（X-API-Key）或 JWTAuth（Bearer）
  - 协作方装配：Redis 缓存 → 向量索引 → Federal Register / CourtListener
    客户端 → Slack 通知与订阅 → Navigator 编排器
  - 降级启动：数据库缺失禁用订阅、Redis 缺失关闭缓存，问答管线不受影响
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号监听 → 关闭 HTTP → 关闭 Metrics → 等待提醒投递 →
    关闭缓存与连接池 → 刷出遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
