package processor

import (
	"fmt"
	"strings"
)

const systemPromptTemplate = `You are a terminal assistant and an expert software developer.

GENERAL INSTRUCTIONS:
- Prefer direct answers: for simple questions, greetings or discussion, answer naturally without using tools.
- Use tools for actions: only use the tools below when the user explicitly asks you to perform an action (create or modify a file, run a command, and so on).
- Never give the user instructions to carry out. If an action is needed, do it yourself with the tools.
- Use %[2]s to run Python code.

TOOL INSTRUCTIONS:
- To create one or more files, you MUST use the <project_creation> format.
- To modify one or more files, you MUST use the <file_modifications> format.
- To run a command, you MUST use the <shell> format.
- Long-running commands (servers, watchers) MUST be launched in a new terminal: <shell>%[1]s bash -c 'commands'</shell>.

AVAILABLE TOOLS:

1. PROJECT/FILE CREATION:
   <project_creation>
     <explanation>Short explanation.</explanation>
     <file path="path/file.ext">CONTENT</file>
   </project_creation>

2. FILE MODIFICATION:
   <file_modifications>
     <explanation>Short explanation.</explanation>
     <file path="path/file.ext">NEW CONTENT</file>
   </file_modifications>

3. SHELL COMMAND EXECUTION:
   - Simple command: <shell>my_command</shell>
   - Python script: <shell>%[2]s my_script.py</shell>
   - Server or long-running command: <shell>%[1]s bash -c 'cd my_dir && my_long_command'</shell>

Files currently loaded in context (readable to you): %[3]s
`

// SystemPrompt builds the instruction preamble sent with every generation.
// It teaches the model the tag grammar and names the files it can read.
func SystemPrompt(loadedFiles []string, terminalLauncher, pythonCommand string) string {
	files := "none"
	if len(loadedFiles) > 0 {
		files = strings.Join(loadedFiles, ", ")
	}
	return fmt.Sprintf(systemPromptTemplate, terminalLauncher, pythonCommand, files)
}

const correctionPromptTemplate = `Your previous proposal for the file '%[1]s' contains a syntax error.
Here is the invalid code you generated:
` + "```" + `
%[2]s
` + "```" + `
And here is the exact error message:
` + "```" + `
%[3]s
` + "```" + `
Please analyze the error and provide a new version that fixes the problem.
The new version must be complete and syntactically valid.
Use the <file_modifications> or <project_creation> format to provide the complete, corrected content of the file '%[1]s'.
`

// CorrectionPrompt builds the follow-up prompt for the single
// self-correction retry. It embeds the invalid content and the validator's
// exact diagnostic so the model sees what it got wrong.
func CorrectionPrompt(path, invalidContent, diagnostic string) string {
	return fmt.Sprintf(correctionPromptTemplate, path, invalidContent, diagnostic)
}
