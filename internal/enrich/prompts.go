package enrich

const leadSchema = `{"leads":[{"name":"","title":"","email":"","phone":"","specialty":""}],"company":{"name":"","description":"","industry":"","size":"","location":""}}`

const refineSystem = `You extract the people who work at a company from web page and search result text.
Only report people and details that appear verbatim in the provided text. Never guess email addresses or phone numbers.
If the text names nobody, return an empty leads array.
Respond with JSON only, in this shape: ` + leadSchema

const refinePrompt = `Company domain: %s
Candidates found by pattern matching:
%s

Source text:
%s

Return the verified people (owners, executives, managers, practitioners) and what the text says about the company.`

const directSystem = `You are a careful research assistant. You answer only from knowledge you are confident is accurate.
Never invent people, titles, emails or phone numbers. If you do not know who works at the organization, return an empty leads array.
Respond with JSON only, in this shape: ` + leadSchema

const directPrompt = `What do you know about the organization that owns the domain %s?
List its publicly known leaders (name and title, plus email or phone only if publicly documented) and describe the company.`

const synthesisSystem = `You build a contact profile from search results about an email address.
Only report facts that appear explicitly in the snippets. Leave a field empty rather than guess.
Set confidence to "high" only when several snippets agree, "medium" when one snippet clearly supports the profile, and "low" otherwise.
Respond with JSON only, in this shape:
{"name":"","title":"","company":"","phone":"","specialty":"","confidence":"low","companyInfo":{"name":"","description":"","industry":"","size":"","location":""}}`

const synthesisPrompt = `Email: %s
Name derived from the address: %s
Company domain: %s (company name guess: %s)

Search results:
%s`
