// 版权所有 2026 PolicyNav Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供 HTTP/HTTPS 服务器生命周期管理，支持非阻塞启动、
优雅关闭与系统信号监听。

# 概述

Manager 封装 net/http.Server，Start 在独立 goroutine 中监听端口并
立即返回，异步错误通过 Errors 通道暴露。WaitForShutdown 阻塞等待
SIGINT/SIGTERM 或服务器错误，然后在 ShutdownTimeout 内优雅排空
在途请求。API 服务器与 Metrics 服务器各持有一个 Manager 实例。
*/
package server
