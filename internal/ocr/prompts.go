package ocr

// extractionInstruction is the fixed per-stripe instruction sent to the
// vision model together with the encoded stripe image. Output language is
// pinned to Brazilian Portuguese.
const extractionInstruction = `A imagem contém texto impresso e anotações manuscritas. Sua tarefa é extrair
cuidadosamente todo o conteúdo textual, incluindo elementos manuscritos.
Sempre retorne o texto em português do Brasil (pt-BR).`

// consolidationInstruction is the fixed instruction for the second model
// call. The combined per-stripe markdown is appended after this text.
const consolidationInstruction = `Você recebeu vários outputs em markdown extraídos de seções sobrepostas de uma imagem.
Algumas seções podem conter informações duplicadas ou conflitantes devido à sobreposição.
Sua tarefa é:
1. Identificar e consolidar linhas de dados que estão relacionadas, garantindo que a versão mais completa da informação seja mantida.
2. Para linhas com informações conflitantes (por exemplo, valores diferentes para um campo), priorize a entrada mais detalhada.
3. Se um campo está faltando em uma linha mas está presente em outra, combine as informações em uma única linha.
4. Produza os dados consolidados em um formato tabular limpo usando a sintaxe Markdown, adequada para renderização direta.
5. Somente saída Markdown: Retorne apenas o conteúdo em Markdown sem nenhuma explicação ou comentário adicional.
Aqui está o conteúdo a ser processado: `
