package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// maxToolRounds bounds the read-tool loop of a single chat call.
const maxToolRounds = 5

// AgentService is the language-understanding collaborator used by the app layer.
type AgentService interface {
	// Chat answers a free-form question. shopContext is a short text snapshot of
	// the shop (today's totals, open debts) placed in the system instructions;
	// tools may be nil.
	Chat(ctx context.Context, message, shopContext string, tools *ToolRegistry) (string, error)

	// AnalyzeLedgerImage reads sale rows from a photographed ledger page.
	AnalyzeLedgerImage(ctx context.Context, image []byte, mimeType, instruction string) (*LedgerAnalysis, error)

	// Transcribe converts Arabic speech to text.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Models selects the OpenAI model per capability.
type Models struct {
	Chat       string
	Vision     string
	Transcribe string
}

type Agent struct {
	client *openai.Client
	models Models
}

func NewAgent(apiKey string, models Models) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if models.Chat == "" {
		models.Chat = string(shared.ChatModelGPT4oMini)
	}
	if models.Vision == "" {
		models.Vision = string(shared.ChatModelGPT4o)
	}
	if models.Transcribe == "" {
		models.Transcribe = string(openai.AudioModelWhisper1)
	}
	return &Agent{client: &client, models: models}
}

func chatInstructions(shopContext string) string {
	return fmt.Sprintf(`أنت مساعد ذكي لمحل بيع قات في اليمن.
مهمتك مساعدة صاحب المحل في متابعة المبيعات والديون والعملاء.
قواعد:
1. أجب باللغة العربية وباختصار.
2. المبالغ بالريال اليمني.
3. استخدم الأدوات المتاحة لقراءة التقارير بدلاً من التخمين.
4. لا تقم بتسجيل أي عملية بنفسك؛ اطلب من المستخدم كتابة الأمر مثل: "بعت ربع شامي بي 5 الف".

معلومات المحل:
%s`, shopContext)
}

func (a *Agent) Chat(ctx context.Context, message, shopContext string, tools *ToolRegistry) (string, error) {
	params := responses.ResponseNewParams{
		Model:        shared.ResponsesModel(a.models.Chat),
		Instructions: param.NewOpt(chatInstructions(shopContext)),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(message),
		},
	}
	if len(tools.All()) > 0 {
		params.Tools = tools.ToOpenAITools()
	}

	for round := 0; ; round++ {
		resp, err := a.client.Responses.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("openai responses error: %w", err)
		}

		var outputs responses.ResponseInputParam
		for _, item := range resp.Output {
			if item.Type != "function_call" {
				continue
			}
			call := item.AsFunctionCall()
			result := tools.Call(ctx, call.Name, call.Arguments)
			outputs = append(outputs, responses.ResponseInputItemParamOfFunctionCallOutput(call.CallID, result))
		}

		if len(outputs) == 0 {
			content := strings.TrimSpace(resp.OutputText())
			if content == "" {
				return "", fmt.Errorf("empty response content")
			}
			return content, nil
		}
		if round+1 >= maxToolRounds {
			return "", fmt.Errorf("assistant exceeded %d tool rounds", maxToolRounds)
		}

		params.PreviousResponseID = param.NewOpt(resp.ID)
		params.Input = responses.ResponseNewParamsInputUnion{OfInputItemList: outputs}
	}
}

func visionPrompt(schema []byte, instruction string) string {
	var b strings.Builder
	b.WriteString(`You read photographed pages of a handwritten Arabic qat sales ledger.
Extract every sale row. Rules:
1. "type" must be one of: شامي، همداني، عنسي، صبري، رداعي، ارحبي، حرازي. Map spelling variants to the closest name.
2. Quantities may be fractions: ربع=0.25, ثلث=0.33, نص=0.5, ثلثين=0.67.
3. Amounts written with "الف" are thousands (5 الف = 5000).
4. If a total is missing, compute quantity × unit_price.
5. Do not invent rows you cannot read; mention unreadable parts in "notes".
Reply with a single JSON object matching this JSON Schema:
`)
	b.Write(schema)
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		b.WriteString("\n\nExtra instruction from the shop owner: ")
		b.WriteString(instruction)
	}
	return b.String()
}

func (a *Agent) AnalyzeLedgerImage(ctx context.Context, image []byte, mimeType, instruction string) (*LedgerAnalysis, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	schema, err := LedgerAnalysisSchema()
	if err != nil {
		return nil, err
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(a.models.Vision),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(visionPrompt(schema, instruction)),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("حلل صفحة الدفتر التالية."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai vision error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrUnreadableAnalysis)
	}

	return ParseLedgerAnalysis(completion.Choices[0].Message.Content)
}

func (a *Agent) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio")
	}
	if filename == "" {
		filename = "voice.webm"
	}

	tr, err := a.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(bytes.NewReader(audio), filename, audioMIME(filename)),
		Model:    openai.AudioModel(a.models.Transcribe),
		Language: openai.String("ar"),
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription error: %w", err)
	}
	return strings.TrimSpace(tr.Text), nil
}

func audioMIME(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(filename, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(filename, ".m4a"):
		return "audio/mp4"
	case strings.HasSuffix(filename, ".ogg"):
		return "audio/ogg"
	default:
		return "audio/webm"
	}
}
