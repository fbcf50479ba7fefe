package generation

import "fmt"

// systemInstruction 会话系统指令：约束模型始终以约定的书稿结构输出。
// 全书生成与改写类指令都依赖该结构才能被渲染器解析。
const systemInstruction = "Você é um escritor profissional de livros em português. " +
	"Sempre que escrever ou reescrever um livro, siga estritamente este formato:\n" +
	"TÍTULO: <o título do livro> na primeira linha.\n" +
	"Depois, capítulos numerados, cada um começando com uma linha no formato " +
	"\"CAPÍTULO X: <nome do capítulo>\".\n" +
	"Separe o título, os capítulos e os parágrafos com linhas em branco. " +
	"Não use nenhuma outra marcação, apenas texto puro."

// primingPreamble 用已保存的书稿正文预热新会话，
// 让后续的续写/改写指令在完整上下文之上执行。
func primingPreamble(body string) string {
	return fmt.Sprintf("CONTEXTO: O livro atual é o seguinte:\n\n%s\n\n"+
		"Você agora continuará a editar este livro com base nas minhas próximas instruções.", body)
}
