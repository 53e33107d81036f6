// Package navigator 实现政策问答的多代理编排核心：
// 查询分类（固定优先级关键词表）、意图路由、顺序管线
// （分类 → 向量检索 → 条件 API 调用 → 启发式合成）与会话历史。
//
// 管线的韧性策略只有一条且必须保持：检索失败与政府 API 失败
// 都是可吸收错误，折叠成降级载荷后继续合成，绝不中断；
// Query 对任何输入（包括空串）都返回 Response，从不返回 error。
package navigator
