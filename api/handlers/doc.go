// Copyright 2026 PolicyNav Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package handlers 提供 Policy Navigator HTTP API 的请求处理器实现。

# 概述

handlers 包实现了政策问答服务所有 HTTP 端点的请求处理逻辑，
包括问答查询、文档管理、会话历史、政府 API 直通、订阅管理与健康检查，
以及统一的响应/错误处理。所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - QueryHandler         — 问答查询处理器（POST /api/v1/query）
  - DocumentsHandler     — 文档增删与统计
  - HistoryHandler       — 会话历史查询与清空
  - PolicyHandler        — Federal Register 直通（状态查询、近期文档）
  - CasesHandler         — CourtListener 判例检索直通
  - SubscriptionsHandler — 政策订阅 CRUD
  - HealthHandler        — 服务健康检查（/health, /healthz, /ready）
  - Response             — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo            — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter       — 包装 http.ResponseWriter 以捕获状态码
  - HealthCheck          — 可插拔健康检查接口（Database、Redis、VectorStore）

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteJSON 辅助函数
  - 请求验证：DecodeJSONBody（1 MB 限制 + 严格模式）、ValidateContentType
  - ErrorCode → HTTP 状态码自动映射（4xx/5xx）
  - 可扩展健康检查：RegisterCheck 注册自定义 HealthCheck 实现
*/
package handlers
