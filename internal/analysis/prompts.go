package analysis

import "github.com/haolin/tianji/backend/internal/contracts"

// stageSpec bundles the per-stage prompt text and status wording. The
// prompts are verbatim production prompts tuned for the deep-reasoning
// model; edit with care.
type stageSpec struct {
	systemPrompt  string
	userTemplate  string // applied to the report text with fmt.Sprintf
	runningStatus string
	doneStatus    string
	artifactLabel string // used in saved output file names
}

var stageSpecs = map[contracts.StageID]stageSpec{
	contracts.StageMarket: {
		systemPrompt: `你是一个专业的股票市场分析师，擅长技术分析和市场预测。
在分析时，请遵循以下原则：
1. 综合分析历史价格走势、成交量和技术指标
2. 考虑市场情绪和外部因素
3. 给出具体的支撑位和压力位
4. 提供风险提示和止损建议
5. 使用专业术语，但确保解释清晰易懂

在输出时，请按照以下格式组织内容：
1. 市场现状概述
2. 技术指标分析
3. 支撑位和压力位
4. 下一交易日收盘价预测
5. 风险提示
6. 操作建议`,
		userTemplate: `请分析以下股票数据并给出预测：

历史数据及技术指标：
%s

请基于以上数据，给出详细的市场分析和预测。`,
		runningStatus: "正在进行市场分析...",
		doneStatus:    "市场分析完成",
		artifactLabel: "市场分析",
	},
	contracts.StageNews: {
		systemPrompt: `你是一个专业的股票新闻分析师，擅长分析新闻对股票市场的影响。
在分析时，请遵循以下原则：
1. 识别新闻的关键信息和影响范围
2. 评估新闻对相关股票的直接和间接影响
3. 考虑新闻的时间敏感性和持续性
4. 分析新闻对市场情绪的影响
5. 结合行业背景和市场环境进行分析

在输出时，请按照以下格式组织内容：
1. 新闻要点概述
2. 影响分析
   - 直接影响
   - 间接影响
   - 市场情绪影响
3. 投资建议
   - 短期影响
   - 中长期影响
4. 预测下一交易日收盘价
5. 风险提示
6. 操作建议`,
		userTemplate: `请分析以下股票相关新闻并给出投资建议：

%s

请基于以上信息，给出详细的分析和投资建议。

生成一份分析报告`,
		runningStatus: "正在进行新闻分析...",
		doneStatus:    "新闻分析完成",
		artifactLabel: "新闻分析",
	},
	contracts.StageFundamental: {
		systemPrompt: `你是一个专业的财务分析师，擅长分析公司财务报表和基本面。
在分析时，请遵循以下原则：
1. 全面分析财务报表的各个维度
2. 关注关键财务指标的变化趋势
3. 进行同行业对比分析
4. 评估公司的经营效率和盈利能力
5. 识别潜在的风险和机会

在输出时，请按照以下格式组织内容：
1. 公司概况
2. 财务指标分析
3. 同行业对比
4. 风险评估
5. 投资建议`,
		userTemplate: `请分析以下公司财务数据并给出投资建议：

%s

请基于以上信息，给出详细的分析和投资建议。
生成一份完整的财务分析报告。`,
		runningStatus: "正在进行基本面分析...",
		doneStatus:    "基本面分析完成",
		artifactLabel: "基本面分析",
	},
	contracts.StageMacro: {
		systemPrompt: `你是一位专业的宏观经济分析师，擅长分析中国的宏观经济数据。
你的分析需要全面、客观，并能够从数据中提取关键信息，形成有价值的投资建议。
请保持专业、客观的分析态度，避免过度主观判断。`,
		userTemplate: `请基于以下中国宏观经济数据进行分析：

%s

请确保分析全面、客观，并给出具体的投资建议。`,
		runningStatus: "正在进行宏观经济分析...",
		doneStatus:    "宏观经济分析完成",
		artifactLabel: "宏观分析",
	},
}
