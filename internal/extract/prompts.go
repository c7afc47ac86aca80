package extract

import (
	"encoding/json"
	"fmt"

	"github.com/yashsmehta/auto-apply/internal/content"
)

// InfoExtractionPrompt builds the prompt that turns an info page into a
// structured program description. Page content is truncated to the prompt
// budget before embedding.
func InfoExtractionPrompt(page string) string {
	return fmt.Sprintf(`You are an expert at analyzing web pages and extracting structured information about applications, programs, and opportunities.

Analyze the following page content and extract all relevant information about the application or program.

FOCUS ON:
- Program details (name, description, purpose)
- Eligibility criteria and requirements
- Important dates and deadlines
- Benefits and opportunities offered
- Application process and steps
- Required documents and materials
- Contact information and support resources

OUTPUT FORMAT (JSON):
{
  "program_name": "official name of the program",
  "description": "comprehensive description of the program",
  "program_type": "grant|scholarship|fellowship|job|other",
  "eligibility": {
    "requirements": ["eligibility requirements"],
    "restrictions": ["restrictions or disqualifying factors"],
    "target_audience": "who this program is designed for"
  },
  "dates": {
    "application_deadline": "application deadline",
    "program_start": "when the program begins",
    "notification_date": "when applicants will be notified"
  },
  "benefits": ["benefits provided by the program"],
  "funding_amount": "amount of funding or null",
  "application_process": ["steps in the application process"],
  "required_documents": ["required documents"],
  "contact": {
    "email": null,
    "phone": null,
    "website": null
  },
  "additional_info": "any other important information"
}

Be thorough but concise. Extract factual information as presented on the page. Respond ONLY with valid JSON. Do not include any other text or explanation.

PAGE CONTENT:
%s`, content.Truncate(page, content.MaxPromptChars))
}

// QuestionExtractionPrompt builds the prompt that enumerates the fields of an
// application form. Form markup is truncated to the prompt budget before
// embedding.
func QuestionExtractionPrompt(page string) string {
	return fmt.Sprintf(`You are an expert at analyzing HTML forms and extracting every element that requires user input.

Analyze the following application form and extract ALL questions and input fields.

LOOK FOR:
- Traditional form inputs (input, textarea, select)
- Radio buttons and checkboxes
- File upload areas
- Custom components with form-like behavior
- Hidden required fields

REQUIREMENTS:
1. Extract the question text as users would see it, not just field names
2. Identify the type of input expected
3. Note whether the field appears to be required
4. Capture available options for select, radio and checkbox fields
5. Record length constraints when stated

OUTPUT FORMAT (JSON):
[
  {
    "question": "the question or label text as shown to users",
    "field_name": "HTML name or id attribute if available",
    "type": "text|textarea|select|radio|checkbox|file|email|tel|number|date",
    "required": true,
    "options": ["options for select/radio/checkbox fields"],
    "max_length": null,
    "help_text": "helper text or instructions if any"
  }
]

Respond ONLY with a valid JSON array. Do not include any other text or explanation.

FORM CONTENT:
%s`, content.Truncate(page, content.MaxPromptChars))
}

// AnswerGenerationPrompt builds the prompt that drafts an answer for every
// extracted question. The program info payload and question list are embedded
// in full: answer quality depends on complete context, so neither is
// truncated. applicantContext carries optional user-supplied background.
func AnswerGenerationPrompt(info interface{}, questions []interface{}, applicantContext string) (string, error) {
	infoJSON, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal application info: %w", err)
	}
	questionsJSON, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal questions: %w", err)
	}

	ctxBlock := ""
	if applicantContext != "" {
		ctxBlock = fmt.Sprintf("APPLICANT CONTEXT:\n%s\n\n", applicantContext)
	}

	return fmt.Sprintf(`You are an expert at filling out application forms. You generate appropriate, professional answers based on available information while being honest about what is missing or uncertain.

Generate an answer for every question below using the program information provided.

GUIDELINES:
1. Use the program details when directly relevant
2. Be concise but complete and respect any stated length constraints
3. Maintain a professional tone
4. For questions lacking clear answers, provide reasonable placeholders
5. Never fabricate specific details such as names, dates or numbers

OUTPUT FORMAT (JSON):
[
  {
    "question": "the original question text",
    "answer": "your generated answer",
    "confidence": "high|medium|low",
    "needs_review": false
  }
]

Respond ONLY with a valid JSON array. Do not include any other text or explanation.

%sAPPLICATION INFORMATION:
%s

QUESTIONS TO ANSWER:
%s`, ctxBlock, infoJSON, questionsJSON), nil
}
